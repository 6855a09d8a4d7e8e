package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	idleTimeout     = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxMessageSize  = 4096
)

type gameUseCase interface {
	CreateGame(ctx context.Context, white, red entity.Policy) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	LegalMoves(ctx context.Context, id string) ([]entity.Move, error)
	Roll(ctx context.Context, id string, color entity.Color) (*entity.Game, error)
	MakeMove(ctx context.Context, id string, color entity.Color, move entity.Move) (*entity.Game, error)
	Reset(ctx context.Context, id string) (*entity.Game, error)
	DeleteGame(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, client *client, message *Message) error

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc

	defaultWhite entity.Policy
	defaultRed   entity.Policy

	watchersMutex sync.RWMutex
	watchers      map[string]map[*client]struct{}
}

type Option func(server *Server)

// WithDefaultPolicies sets the seats used when game:new leaves a policy out.
func WithDefaultPolicies(white, red entity.Policy) Option {
	return func(server *Server) {
		server.defaultWhite = white
		server.defaultRed = red
	}
}

func New(logger *slog.Logger, gameUseCase gameUseCase, opts ...Option) *Server {
	server := &Server{
		logger:      logger,
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
		watchers: make(map[string]map[*client]struct{}),

		defaultWhite: entity.PolicyHuman,
		defaultRed:   entity.PolicyHuman,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.handlers[actionNewGame] = server.handleNewGame
	server.handlers[actionState] = server.handleState
	server.handlers[actionMoves] = server.handleMoves
	server.handlers[actionRoll] = server.handleRoll
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionReset] = server.handleReset
	server.handlers[actionDelete] = server.handleDelete

	return server
}

// Router exposes /ws for game traffic and /ping for health checks.
func (that *Server) Router(ctx context.Context) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWebSocket(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(ctx),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{conn: conn}
	defer func() {
		that.unwatchAll(c)
		_ = conn.Close()
	}()

	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	if err = that.handleMessages(ctx, c); err != nil {
		log.Info("WebSocket connection closed", "reason", err)
	}
}

// handleMessages - processes messages from the client until it goes away.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var message Message
		if err := c.conn.ReadJSON(&message); err != nil {
			if isMalformed(err) {
				that.sendError(c, actionUnknown, fmt.Errorf("%w: %v", errBadRequest, err))
				continue
			}
			return err
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(c, message.Action, fmt.Errorf("%w: unknown action %q", errBadRequest, message.Action))
			continue
		}

		if err := handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// isMalformed reports whether a frame arrived intact but did not decode into a Message.
func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (that *Server) watch(gameID string, c *client) {
	that.watchersMutex.Lock()
	defer that.watchersMutex.Unlock()

	if that.watchers[gameID] == nil {
		that.watchers[gameID] = make(map[*client]struct{})
	}
	that.watchers[gameID][c] = struct{}{}
}

func (that *Server) unwatchAll(c *client) {
	that.watchersMutex.Lock()
	defer that.watchersMutex.Unlock()

	for gameID, clients := range that.watchers {
		delete(clients, c)
		if len(clients) == 0 {
			delete(that.watchers, gameID)
		}
	}
}

func (that *Server) forget(gameID string) {
	that.watchersMutex.Lock()
	defer that.watchersMutex.Unlock()

	delete(that.watchers, gameID)
}

// broadcast pushes a fresh state to every other client watching the game.
func (that *Server) broadcast(game *entity.Game, except *client) {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	that.watchersMutex.RLock()
	clients := make([]*client, 0, len(that.watchers[game.ID]))
	for c := range that.watchers[game.ID] {
		if c != except {
			clients = append(clients, c)
		}
	}
	that.watchersMutex.RUnlock()

	state := game.CurrentState()
	for _, c := range clients {
		if err := c.send(actionUpdate, Response{Game: &state}); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// send serializes writes; gorilla connections allow one writer at a time.
func (that *client) send(action string, response Response) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: payload}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
