package server

import (
	"context"

	"google.golang.org/grpc"
)

// invoiceServer is what ServiceDesc dispatches to.
type invoiceServer interface {
	Analyze(context.Context, *AnalyzeRequest) (*AnalyzeResponse, error)
	Submit(context.Context, *SubmitRequest) (*SubmitResponse, error)
	GetInvoice(context.Context, *GetInvoiceRequest) (*InvoiceRecord, error)
	ListInvoices(context.Context, *ListInvoicesRequest) (*ListInvoicesResponse, error)
	ExportInvoices(context.Context, *ExportInvoicesRequest) (*ExportInvoicesResponse, error)
}

// unary adapts a typed handler to grpc.MethodHandler.
func unary[Req any, Resp any](method string, call func(invoiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(invoiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(invoiceServer), ctx, req.(*Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*invoiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Analyze", invoiceServer.Analyze),
		unary("Submit", invoiceServer.Submit),
		unary("GetInvoice", invoiceServer.GetInvoice),
		unary("ListInvoices", invoiceServer.ListInvoices),
		unary("ExportInvoices", invoiceServer.ExportInvoices),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nfse/v1/invoice.json",
}
