// Package websocket 接收外部逻辑层推送的走子事件，并把播放进度广播回去
//
// 每个连接一个读协程和一个写协程，连接的注册/注销和广播由 Run 协程串行处理。
// 收到的事件进入有界队列，播放器在空闲时通过 Poll 取出，游戏循环从不阻塞在网络上。
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/decker502/stonecrush/pkg/events"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A full 8x8 board with long tokens fits.
	maxMessageSize = 64 * 1024

	// DefaultQueueSize 默认事件队列长度
	DefaultQueueSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 回复给客户端的事件名
const (
	ReplyQueued = "queued"
	ReplyError  = "error"
	ReplyPhase  = "phase"
)

// Reply 服务端发给客户端的消息
type Reply struct {
	Event     string `json:"event"`
	Error     string `json:"error,omitempty"`
	State     string `json:"state,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Explosion int    `json:"explosion,omitempty"`
}

// client 一个 websocket 连接
type client struct {
	receiver *Receiver
	conn     *websocket.Conn
	send     chan []byte
}

// clientReply 发给单个客户端的回复，由 Run 投递
type clientReply struct {
	client *client
	data   []byte
}

// Receiver 事件接收器，实现 events.Source
//
// 只有 Run 协程会写入或关闭 client.send。
type Receiver struct {
	queue      chan events.Event
	clients    map[*client]bool
	broadcast  chan []byte
	replies    chan clientReply
	register   chan *client
	unregister chan *client
	done       chan struct{} // Run 退出时关闭
}

// NewReceiver 创建接收器，queueSize <= 0 时使用 DefaultQueueSize
func NewReceiver(queueSize int) *Receiver {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Receiver{
		queue:      make(chan events.Event, queueSize),
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		replies:    make(chan clientReply, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run 处理连接注册与广播，直到 ctx 结束
func (r *Receiver) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			for c := range r.clients {
				r.removeClient(c)
			}
			return

		case c := <-r.register:
			r.clients[c] = true
			log.Printf("[WebSocket] 客户端已连接（共 %d 个）", len(r.clients))

		case c := <-r.unregister:
			r.removeClient(c)

		case data := <-r.broadcast:
			for c := range r.clients {
				r.sendTo(c, data)
			}

		case reply := <-r.replies:
			// 已被断开的客户端不再投递
			if r.clients[reply.client] {
				r.sendTo(reply.client, reply.data)
			}
		}
	}
}

// sendTo 只在 Run 协程中调用
func (r *Receiver) sendTo(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		// 客户端发送队列已满，断开它
		r.removeClient(c)
	}
}

// join 注册客户端；Run 已退出时返回 false
func (r *Receiver) join(c *client) bool {
	select {
	case r.register <- c:
		return true
	case <-r.done:
		return false
	}
}

// leave 注销客户端；Run 已退出时直接返回
func (r *Receiver) leave(c *client) {
	select {
	case r.unregister <- c:
	case <-r.done:
	}
}

// reply 把回复交给 Run 投递；Run 已退出时丢弃
func (r *Receiver) reply(c *client, data []byte) {
	select {
	case r.replies <- clientReply{client: c, data: data}:
	case <-r.done:
	}
}

func (r *Receiver) removeClient(c *client) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	close(c.send)
	log.Printf("[WebSocket] 客户端已断开（剩余 %d 个）", len(r.clients))
}

// ServeHTTP 升级连接并启动读写协程
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("[WebSocket] 升级失败: %v", err)
		return
	}

	c := &client{
		receiver: r,
		conn:     conn,
		send:     make(chan []byte, 256),
	}
	if !r.join(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Poll 取出下一条事件，不阻塞
func (r *Receiver) Poll() (events.Event, bool) {
	select {
	case e := <-r.queue:
		return e, true
	default:
		return events.Event{}, false
	}
}

// Pending 队列中等待播放的事件数
func (r *Receiver) Pending() int {
	return len(r.queue)
}

// Notify 向所有客户端广播播放进度，不阻塞游戏循环
func (r *Receiver) Notify(state, phase string, explosion int) {
	data, err := json.Marshal(Reply{Event: ReplyPhase, State: state, Phase: phase, Explosion: explosion})
	if err != nil {
		log.Printf("[WebSocket] 序列化进度失败: %v", err)
		return
	}
	select {
	case r.broadcast <- data:
	default:
		log.Printf("[WebSocket] 广播队列已满，丢弃进度 %s/%s", state, phase)
	}
}

// enqueue 解码并入队一条消息，返回给发送者的回复
func (r *Receiver) enqueue(message []byte) Reply {
	e, err := events.DecodeMessage(message)
	if err != nil {
		log.Printf("[WebSocket] 拒绝消息: %v", err)
		return Reply{Event: ReplyError, Error: err.Error()}
	}
	select {
	case r.queue <- e:
		return Reply{Event: ReplyQueued}
	default:
		return Reply{Event: ReplyError, Error: "event queue full"}
	}
}

// readPump 读取客户端发来的事件
func (c *client) readPump() {
	defer func() {
		c.receiver.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket] 读取错误: %v", err)
			}
			return
		}

		reply, err := json.Marshal(c.receiver.enqueue(message))
		if err != nil {
			continue
		}
		c.receiver.reply(c, reply)
	}
}

// writePump 把回复和广播写回连接
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ListenAndServe 在 addr 上提供 /ws，直到 ctx 结束
func (r *Receiver) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", r)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[WebSocket] 监听 %s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
