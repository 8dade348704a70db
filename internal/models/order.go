package models

import "time"

// Order 代表一个客户订单。新订单默认处于待处理 (Pending) 状态，完成后记录完成时间。
type Order struct {
	BaseModel
	OrderNumber   string      `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderNumber"`
	CustomerName  string      `gorm:"type:varchar(200);not null" json:"customerName"`
	CustomerPhone string      `gorm:"type:varchar(50)" json:"customerPhone,omitempty"`
	Notes         string      `gorm:"type:text" json:"notes,omitempty"`
	Pending       bool        `gorm:"not null;default:true" json:"pending"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// TableName 指定 Order 模型的表名。
func (Order) TableName() string {
	return "orders"
}

// OrderItem 是订单中的一行，引用目录中的一张商品图片。
type OrderItem struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	OrderID  uint   `gorm:"index;not null" json:"orderId"`
	Code     string `gorm:"type:varchar(200);not null" json:"code"` // 图片 code
	Name     string `gorm:"type:varchar(255)" json:"name,omitempty"`
	Category string `gorm:"type:varchar(255)" json:"category,omitempty"`
	Quantity int    `gorm:"not null;default:1" json:"quantity"`
}

// TableName 指定 OrderItem 模型的表名。
func (OrderItem) TableName() string {
	return "order_items"
}
