package domain

// CartUpdateEvent 购物车更新事件，携带持久化后的完整快照
type CartUpdateEvent struct {
	SessionID string `json:"sessionId"`
	Cart      *Cart  `json:"cart"`
}
