package server

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls InvoiceService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *Client) Analyze(ctx context.Context, in *AnalyzeRequest, opts ...grpc.CallOption) (*AnalyzeResponse, error) {
	out := new(AnalyzeResponse)
	if err := c.invoke(ctx, "Analyze", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Submit(ctx context.Context, in *SubmitRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	out := new(SubmitResponse)
	if err := c.invoke(ctx, "Submit", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetInvoice(ctx context.Context, in *GetInvoiceRequest, opts ...grpc.CallOption) (*InvoiceRecord, error) {
	out := new(InvoiceRecord)
	if err := c.invoke(ctx, "GetInvoice", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListInvoices(ctx context.Context, in *ListInvoicesRequest, opts ...grpc.CallOption) (*ListInvoicesResponse, error) {
	out := new(ListInvoicesResponse)
	if err := c.invoke(ctx, "ListInvoices", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExportInvoices(ctx context.Context, in *ExportInvoicesRequest, opts ...grpc.CallOption) (*ExportInvoicesResponse, error) {
	out := new(ExportInvoicesResponse)
	if err := c.invoke(ctx, "ExportInvoices", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
