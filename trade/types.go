// Package trade implements the order-entry client: request builders,
// execution-report parsing, and the time-bounded correlation queue that
// turns asynchronous FIX exchanges into awaitable operations.
package trade

// Order mirrors the lifecycle of one order as tracked from ExecutionReport
// updates. Fields are grouped the way the teacher groups its Order
// struct: identifiers, then quantities/prices, then status/rejection
// detail.
type Order struct {
	ClOrdID    string
	OrderID    string
	OrigClOrdID string
	Symbol     string
	Side       string
	OrdType    string

	OrderQty   float64
	Price      float64
	StopPx     float64
	CumQty     float64
	LeavesQty  float64
	AvgPx      float64
	LastShares float64

	OrdStatus    string
	ExecType     string
	OrdRejReason string
	Text         string
}

// ExecutionReport is a decoded 35=8 message.
type ExecutionReport struct {
	ClOrdID    string
	OrderID    string
	OrigClOrdID string
	Symbol     string
	Side       string
	OrdStatus  string
	ExecType   string
	OrderQty   float64
	CumQty     float64
	LeavesQty  float64
	AvgPx      float64
	LastShares float64
	Price      float64
	Text       string
	OrdRejReason string
	TransactTime string
}

// OrderCancelReject is a decoded 35=9 message.
type OrderCancelReject struct {
	ClOrdID       string
	OrigClOrdID   string
	OrderID       string
	CxlRejResponseTo string
	Text          string
}

// Position is one parsed 35=AP entry.
type Position struct {
	Symbol        string
	PosMaintRptID string
	LongQty       float64
	ShortQty      float64
	SettlPrice    float64

	AbsoluteTP float64
	RelativeTP float64
	AbsoluteSL float64
	RelativeSL float64
	TrailingSL float64
}

// SecurityInfo is one parsed 35=y NoRelatedSym entry.
type SecurityInfo struct {
	ID     string
	Name   string
	Digits int
}

// NewOrderParams are the caller-supplied fields for a new order. ClOrdID
// is generated if left empty.
type NewOrderParams struct {
	ClOrdID       string
	Symbol        string
	Side          string
	OrderQty      float64
	OrdType       string
	Price         float64
	StopPx        float64
	TimeInForce   string
	ExpireTime    string
	PosMaintRptID string
	Designation   string
}

// CancelOrderParams identifies the order to cancel by either
// OrigClOrdID or OrderID; at least one must be set.
type CancelOrderParams struct {
	ClOrdID     string
	OrigClOrdID string
	OrderID     string
	Symbol      string
	Side        string
}

// ReplaceOrderParams is CancelOrderParams plus the new order terms.
type ReplaceOrderParams struct {
	ClOrdID     string
	OrigClOrdID string
	OrderID     string
	Symbol      string
	Side        string
	OrderQty    float64
	OrdType     string
	Price       float64
	StopPx      float64
}

// Handlers is the capability object for trade-client events.
type Handlers struct {
	OnExecutionReport func(ExecutionReport)
}

func (h Handlers) fireExecutionReport(r ExecutionReport) {
	if h.OnExecutionReport != nil {
		go h.OnExecutionReport(r)
	}
}
