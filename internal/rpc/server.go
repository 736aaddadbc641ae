package rpc

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/logging"
)

// Raiser receives validated keyword bits.
type Raiser interface {
	Raise(bits keyword.Set)
}

type Server struct {
	vocab  *keyword.Vocabulary
	raiser Raiser
	ready  atomic.Bool
}

func NewServer(vocab *keyword.Vocabulary, raiser Raiser) *Server {
	if vocab == nil {
		vocab = keyword.Default()
	}
	return &Server{vocab: vocab, raiser: raiser}
}

func (s *Server) SetReady(v bool) { s.ready.Store(v) }
func (s *Server) Ready() bool     { return s.ready.Load() }

func (s *Server) Raise(ctx context.Context, in *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	set, err := s.check(in.GetValue())
	if err != nil {
		metricKeywords.WithLabelValues("raise", "rejected").Inc()
		return nil, err
	}
	s.raiser.Raise(set)
	metricKeywords.WithLabelValues("raise", "accepted").Inc()
	return &emptypb.Empty{}, nil
}

// Publish raises every value on the stream. An invalid value aborts the
// stream; values already received stay raised.
func (s *Server) Publish(stream PublishStream) error {
	n := 0
	for {
		in, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			logging.Debug("rpc", "publish stream closed after %d notifications", n)
			return stream.SendAndClose(&emptypb.Empty{})
		}
		if err != nil {
			return err
		}
		set, err := s.check(in.GetValue())
		if err != nil {
			metricKeywords.WithLabelValues("publish", "rejected").Inc()
			return err
		}
		s.raiser.Raise(set)
		metricKeywords.WithLabelValues("publish", "accepted").Inc()
		n++
	}
}

func (s *Server) check(v uint32) (keyword.Set, error) {
	set := keyword.Set(v)
	if set.IsEmpty() {
		return 0, status.Error(codes.InvalidArgument, "empty keyword set")
	}
	if extra := set &^ s.vocab.All(); extra != 0 {
		return 0, status.Errorf(codes.InvalidArgument, "unknown keyword bits %#x", uint32(extra))
	}
	return set, nil
}
