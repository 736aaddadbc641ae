package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"kwhmi/agent/internal/keyword"
)

type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security. Extra options are
// applied after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: conn, conn: conn}, nil
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Raise(ctx context.Context, set keyword.Set) error {
	return c.cc.Invoke(ctx, raiseMethod, wrapperspb.UInt32(uint32(set)), new(emptypb.Empty))
}

// Publish opens a client stream of notifications.
func (c *Client) Publish(ctx context.Context) (*Publisher, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], publishMethod)
	if err != nil {
		return nil, err
	}
	return &Publisher{stream: stream}, nil
}

type Publisher struct {
	stream grpc.ClientStream
}

func (p *Publisher) Send(set keyword.Set) error {
	return p.stream.SendMsg(wrapperspb.UInt32(uint32(set)))
}

// CloseAndRecv ends the stream and returns the server's verdict.
func (p *Publisher) CloseAndRecv() error {
	if err := p.stream.CloseSend(); err != nil {
		return err
	}
	return p.stream.RecvMsg(new(emptypb.Empty))
}
