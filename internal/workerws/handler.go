package workerws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"

	"kwhmi/agent/internal/auth"
	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/logging"
	"kwhmi/agent/internal/types"
)

// Message types.
const (
	TypeKeywords = "keywords"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeCommand  = "command"
	TypeError    = "error"
)

type Message struct {
	Type     string   `json:"type"`
	TsMs     int64    `json:"ts_ms,omitempty"`
	Seq      int64    `json:"seq,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Object   string   `json:"object,omitempty"`
	On       *bool    `json:"on,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Raiser receives keyword bits from producers.
type Raiser interface {
	Raise(bits keyword.Set)
}

type Journal interface {
	Append(typ string, payload map[string]any) types.Event
}

type Server struct {
	Vocab   *keyword.Vocabulary
	Raiser  Raiser
	Reg     *Registry
	Journal Journal

	// TokenSecret enables producer authentication when set.
	TokenSecret   string
	TokenSkewSecs int
}

func NewServer(vocab *keyword.Vocabulary, raiser Raiser, reg *Registry, journal Journal) *Server {
	return &Server{Vocab: vocab, Raiser: raiser, Reg: reg, Journal: journal}
}

// HandleProducer accepts a keyword producer. Each text message carries one
// notification; its keywords are raised together.
func (s *Server) HandleProducer(w http.ResponseWriter, r *http.Request) {
	producer := r.URL.Query().Get("producer")
	if producer == "" {
		producer = "anonymous"
	}
	if s.TokenSecret != "" {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		name, err := auth.ValidateProducerToken(s.TokenSecret, token, "", time.Now(), s.TokenSkewSecs)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		producer = name
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		logging.Info("ws", "accept producer: %v", err)
		return
	}
	gaugeClients.WithLabelValues("producer").Inc()
	defer gaugeClients.WithLabelValues("producer").Dec()
	s.appendEvent(types.EventProducer, map[string]any{"producer": producer, "transport": "ws"})

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(ctx, c, Message{Type: TypeError, Error: "invalid json: " + err.Error()})
			continue
		}
		switch msg.Type {
		case TypeKeywords:
			set, err := s.Vocab.ParseList(msg.Keywords)
			if err != nil {
				metricKeywords.WithLabelValues("rejected").Inc()
				s.reply(ctx, c, Message{Type: TypeError, Seq: msg.Seq, Error: err.Error()})
				continue
			}
			metricKeywords.WithLabelValues("accepted").Inc()
			s.Raiser.Raise(set)
		case TypePing:
			s.reply(ctx, c, Message{Type: TypePong, Seq: msg.Seq, TsMs: time.Now().UnixMilli()})
		default:
			s.reply(ctx, c, Message{Type: TypeError, Seq: msg.Seq, Error: "unsupported type " + msg.Type})
		}
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.appendEvent(types.EventProducerGone, map[string]any{"producer": producer, "transport": "ws"})
}

// HandleObserver streams every dispatched command to the client until it
// disconnects.
func (s *Server) HandleObserver(w http.ResponseWriter, r *http.Request) {
	c, err := ws.Accept(w, r, nil)
	if err != nil {
		logging.Info("ws", "accept observer: %v", err)
		return
	}
	id := s.Reg.Add(c)
	defer s.Reg.Remove(id)

	// Observers only listen; CloseRead handles control frames and reports
	// the disconnect.
	ctx := c.CloseRead(r.Context())
	<-ctx.Done()
	_ = c.Close(ws.StatusNormalClosure, "done")
}

func (s *Server) reply(ctx context.Context, c *ws.Conn, m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = c.Write(wctx, ws.MessageText, b)
}

func (s *Server) appendEvent(typ string, payload map[string]any) {
	if s.Journal != nil {
		s.Journal.Append(typ, payload)
	}
}
