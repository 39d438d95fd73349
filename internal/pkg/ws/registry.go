package ws

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 32
)

// Client 一个已认证的 websocket 连接
type Client struct {
	ID     string
	UserID uint64

	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func NewClient(userID uint64, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Close 幂等关闭
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Done 连接关闭后可读
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Serve 阻塞运行读写循环，直到连接断开或 ctx 结束
func (c *Client) Serve(ctx context.Context) {
	defer c.Close()

	// 读循环：只处理控制帧，读失败即视为断开
	go func() {
		defer c.Close()
		c.conn.SetReadLimit(512)
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Warn("ws push failed", "userID", c.UserID, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Registry 本实例上 用户 -> 连接 的映射，同一用户可以有多个连接
type Registry struct {
	mu      sync.RWMutex
	clients map[uint64]map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[uint64]map[string]*Client)}
}

func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.clients[c.UserID]
	if !ok {
		set = make(map[string]*Client)
		r.clients[c.UserID] = set
	}
	set[c.ID] = c
}

// Unregister 断开时调用，用户没有剩余连接则移除条目
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.clients[c.UserID]
	if !ok {
		return
	}
	delete(set, c.ID)
	if len(set) == 0 {
		delete(r.clients, c.UserID)
	}
}

func (r *Registry) IsOnline(userID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[userID]) > 0
}

// Emit 投递给用户的全部连接，返回成功入队的连接数；用户不在线时为 0。
// 发送缓冲已满的连接直接丢弃该条消息。
func (r *Registry) Emit(userID uint64, payload []byte) int {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients[userID]))
	for _, c := range r.clients[userID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		select {
		case <-c.done:
		case c.send <- payload:
			delivered++
		default:
			log.Warn("ws send buffer full, dropping message", "userID", userID, "clientID", c.ID)
		}
	}
	return delivered
}

// Count 在线连接总数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, set := range r.clients {
		n += len(set)
	}
	return n
}

// CloseAll 关闭全部连接，进程退出时调用
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.clients
	r.clients = make(map[uint64]map[string]*Client)
	r.mu.Unlock()

	for _, set := range all {
		for _, c := range set {
			c.Close()
		}
	}
}
