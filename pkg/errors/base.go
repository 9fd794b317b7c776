package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Common errors.
var (
	// OK represents success.
	OK = Register(&Errno{
		Code:      0,
		HTTP:      http.StatusOK,
		GRPCCode:  codes.OK,
		MessageEN: "Success",
		MessageZH: "成功",
	})

	// ErrInternal represents an unexpected internal failure.
	ErrInternal = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryInternal, 0),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Internal error",
		MessageZH: "内部错误",
	})

	// ErrTimeout represents a deadline reached while waiting on an operation.
	ErrTimeout = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryInternal, 1),
		HTTP:      http.StatusGatewayTimeout,
		GRPCCode:  codes.DeadlineExceeded,
		MessageEN: "Operation timed out",
		MessageZH: "操作超时",
	})

	// ErrRouteNotFound is served for unknown status server paths.
	ErrRouteNotFound = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryResource, 0),
		HTTP:      http.StatusNotFound,
		GRPCCode:  codes.NotFound,
		MessageEN: "Route not found",
		MessageZH: "路由不存在",
	})
)

// Data source errors.
var (
	// ErrConfiguration is returned when a named source is not defined
	// or holds something other than a MongoDB handle.
	ErrConfiguration = NewConfigError(ServiceDataSource, 1).
				Message("Data source is not defined", "数据源未定义").
				MustBuild()

	// ErrInvalidOptions is returned when a connection descriptor fails validation.
	ErrInvalidOptions = NewRequestError(ServiceDataSource, 1).
				Message("Invalid connection descriptor", "连接配置无效").
				MustBuild()

	// ErrCommandParse is returned when command text is not a JSON document.
	ErrCommandParse = NewRequestError(ServiceDataSource, 2).
			Message("Command is not a valid JSON document", "命令不是合法的 JSON 文档").
			MustBuild()

	// ErrUnresolvableEndpoint is returned when a host in a connection
	// string cannot be parsed or resolved.
	ErrUnresolvableEndpoint = NewNetworkError(ServiceDataSource, 1).
				Message("Unresolvable endpoint", "无法解析的地址").
				MustBuild()

	// ErrNotConnected is returned by a handle that has been closed.
	ErrNotConnected = NewBuilder(ServiceDataSource, CategoryDatabase, 1).
			HTTP(http.StatusServiceUnavailable).
			GRPC(codes.Unavailable).
			Message("Data source is not connected", "数据源未连接").
			MustBuild()
)
