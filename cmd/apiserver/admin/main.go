package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/browser"
	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
)

// console 是目录浏览器的终端前端：提示、确认与渲染都走标准输入输出。
type console struct {
	in  *bufio.Reader
	out io.Writer
}

func (c *console) Success(msg string) { fmt.Fprintf(c.out, "✔ %s\n", msg) }
func (c *console) Error(msg string)   { fmt.Fprintf(c.out, "✖ %s\n", msg) }

func (c *console) Confirm(msg string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", msg)
	line, _ := c.in.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (c *console) render(page *browser.Page) {
	var crumbs []string
	for _, b := range page.Breadcrumbs() {
		crumbs = append(crumbs, b.Name)
	}
	v := page.View()
	fmt.Fprintf(c.out, "\n%s\n%s\n", strings.Join(crumbs, " / "), v.Title)
	if v.ShowParent {
		fmt.Fprintln(c.out, "  [..]  parent folder")
	}
	switch v.Kind {
	case browser.ViewFolders:
		fmt.Fprintf(c.out, "  %d folders", v.TotalFolders)
		if v.Query != "" {
			fmt.Fprintf(c.out, ", %d matching %q", len(v.Folders), v.Query)
		}
		fmt.Fprintln(c.out)
		for _, f := range v.Folders {
			fmt.Fprintf(c.out, "  [D] %-30s %d images\n", f.Name, len(f.Images))
		}
	case browser.ViewImages:
		for _, img := range v.Images {
			fmt.Fprintf(c.out, "  [I] %-30s %s\n", img.Name, img.URL)
		}
	default:
		fmt.Fprintln(c.out, "  (empty folder)")
	}
}

const usage = `commands:
  login <password>     open the session gate
  logout               close the session
  ls                   show the current folder
  find <text>          filter folders by name ("find" alone clears)
  cd <path>            go to a folder ("cd /" for root, "cd .." for parent)
  up                   go to the parent folder
  mkdir <name>         create a folder here
  upload <file>...     upload the first file given
  rm <folder>          delete a folder (asks for confirmation)
  rmimg <image>        delete an image (asks for confirmation)
  help                 show this help
  quit                 exit`

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	apiURL := flag.String("api", "", "API 地址，默认 http://localhost:<API_SERVER.PORT><APP.BASE_PATH>")
	localGate := flag.Bool("local-gate", false, "在本地比较共享密钥，不向服务端申请会话令牌")
	watch := flag.Bool("watch", true, "订阅目录变更事件，当前目录变化时自动刷新")
	hashPassword := flag.String("hash-password", "", "输出该密码的 bcrypt 哈希（用于 AUTH.ADMIN_PASSWORD_HASH）后退出")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "生成哈希失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	// 控制台只输出警告以上的日志，避免干扰交互
	cfg.Log.Level = "warn"
	cfg.Log.Format = "console"
	cfg.Log.OutputPath = "stderr"
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "无法初始化日志: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	base := *apiURL
	if base == "" {
		base = fmt.Sprintf("http://localhost:%s%s", cfg.APIServer.Port, config.NormalizeBasePath(cfg.App.BasePath))
	}

	client := browser.NewClient(base, nil)
	var authenticator browser.Authenticator = browser.NewRemote(client)
	if *localGate {
		authenticator = browser.NewSharedSecret(cfg.Auth.AdminPassword)
	}
	gate := browser.NewGate(authenticator)
	client.UseTokens(gate)

	con := &console{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	page := browser.NewPage(client, gate, browser.PageOptions{Toaster: con, Confirmer: con})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(con.out, "catalog admin @ %s\n%s\n", base, usage)
	watching := false

	for {
		fmt.Fprint(con.out, "> ")
		line, err := con.in.ReadString('\n')
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "":
			continue
		case "help":
			fmt.Fprintln(con.out, usage)
		case "quit", "exit":
			return
		case "login":
			if err := page.Login(ctx, arg); err == nil {
				con.render(page)
				if *watch && !watching {
					watching = true
					go watchEvents(ctx, page, gate, con, wsURL(base, cfg.Notifier.WebSocketPath))
				}
			}
		case "logout":
			if err := page.Logout(ctx); err == nil {
				fmt.Fprintln(con.out, "signed out")
			}
		case "ls":
			if page.Load(ctx) == nil {
				con.render(page)
			}
		case "find":
			page.SetQuery(arg)
			con.render(page)
		case "cd":
			var err error
			switch arg {
			case "..":
				err = page.NavigateUp(ctx)
			case "/", "":
				err = page.NavigateTo(ctx, "")
			default:
				target := arg
				if !strings.HasPrefix(arg, "/") {
					target = catalogtypes.JoinDir(page.CurrentDir(), arg)
				}
				err = page.NavigateTo(ctx, target)
			}
			report(con, page, err)
		case "up":
			report(con, page, page.NavigateUp(ctx))
		case "mkdir":
			page.OpenFolderDialog()
			page.SetFolderName(arg)
			if res := page.SubmitFolder(ctx); res.Err == nil {
				con.render(page)
			} else if d := page.FolderDialog(); d.Open && d.Error != "" {
				fmt.Fprintf(con.out, "  %s\n", d.Error)
			}
		case "upload":
			sel, closeAll := selection(strings.Fields(arg))
			res := page.Upload(ctx, sel)
			closeAll()
			if res.Reload {
				con.render(page)
			}
		case "rm":
			deleteFolder(ctx, page, con, arg)
		case "rmimg":
			if res := page.DeleteImage(ctx, catalogtypes.Image{Name: arg}); res.Reload {
				con.render(page)
			}
		default:
			fmt.Fprintf(con.out, "unknown command %q, try help\n", cmd)
		}
	}
}

func report(con *console, page *browser.Page, err error) {
	if errors.Is(err, browser.ErrNotAuthenticated) {
		fmt.Fprintln(con.out, "login first")
		return
	}
	if err == nil {
		con.render(page)
	}
}

// selection 打开本地文件；只有第一个会被上传。打开失败的文件被跳过。
func selection(paths []string) (*browser.Selection, func()) {
	sel := &browser.Selection{}
	var files []*os.File
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "无法打开 %s: %v\n", p, err)
			continue
		}
		files = append(files, f)
		sel.Files = append(sel.Files, browser.File{Name: filepath.Base(p), Reader: f})
	}
	return sel, func() {
		for _, f := range files {
			f.Close()
		}
	}
}

func deleteFolder(ctx context.Context, page *browser.Page, con *console, name string) {
	if name == "" {
		fmt.Fprintln(con.out, "usage: rm <folder>")
		return
	}
	page.RequestDeleteFolder(catalogtypes.Category{Name: name})
	if !con.Confirm(fmt.Sprintf("Delete folder %q and everything inside it?", name)) {
		page.DismissDeleteModal()
		return
	}
	res := page.ConfirmDeleteFolder(ctx)
	if page.DeleteModal().Phase == browser.ModalSuccess {
		fmt.Fprintf(con.out, "✔ Folder %q deleted\n", name)
		page.DismissDeleteModal()
	}
	if res.Reload {
		con.render(page)
	}
}

// watchEvents 在当前目录被其他人修改时刷新并重新渲染。
func watchEvents(ctx context.Context, page *browser.Page, gate *browser.Gate, con *console, url string) {
	err := browser.Watch(ctx, url, gate.Token(), func(event catalogtypes.Event) {
		if page.HandleEvent(ctx, event) {
			fmt.Fprintf(con.out, "\n(%s: %s)", event.Type, event.Name)
			con.render(page)
			fmt.Fprint(con.out, "> ")
		}
	})
	if err != nil && ctx.Err() == nil {
		logging.Warn("目录事件订阅已断开", logging.String("url", url), logging.Err(err))
	}
}

// wsURL 把 http(s) API 地址换成 ws(s)，并拼上事件路径。
func wsURL(base, path string) string {
	if path == "" {
		path = "/ws/catalog"
	}
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimRight(base, "/") + path
}
