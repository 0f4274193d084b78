package trade

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/tradeflow/fixvenue/constants"
	"github.com/tradeflow/fixvenue/wire"
)

func buildSecurityListRequest(reqID string) *wire.Builder {
	return wire.NewBuilder(constants.MsgTypeSecurityListRequest).
		Set(constants.TagSecurityReqID, reqID).
		Set(constants.TagSecurityListRequestType, "0")
}

func buildPositionsRequest(reqID string) *wire.Builder {
	return wire.NewBuilder(constants.MsgTypeRequestForPositions).
		Set(constants.TagPosReqID, reqID)
}

func buildMassStatusRequest(reqID string) *wire.Builder {
	return wire.NewBuilder(constants.MsgTypeOrderMassStatusRequest).
		Set(constants.TagMassStatusReqID, reqID).
		Set(constants.TagMassStatusReqType, constants.MassStatusReqTypeAllOrders)
}

func buildNewOrderSingle(p NewOrderParams) *wire.Builder {
	b := wire.NewBuilder(constants.MsgTypeNewOrderSingle).
		Set(constants.TagClOrdID, p.ClOrdID).
		Set(constants.TagSymbol, p.Symbol).
		Set(constants.TagSide, p.Side).
		Set(constants.TagOrderQty, strconv.FormatFloat(p.OrderQty, 'f', -1, 64)).
		Set(constants.TagOrdType, p.OrdType).
		SetIfNotEmpty(constants.TagTimeInForce, p.TimeInForce).
		SetIfNotEmpty(constants.TagExpireTime, p.ExpireTime).
		SetIfNotEmpty(constants.TagPosMaintRptID, p.PosMaintRptID).
		SetIfNotEmpty(constants.TagDesignation, p.Designation)
	if p.OrdType == constants.OrdTypeLimit {
		b.Set(constants.TagPrice, strconv.FormatFloat(p.Price, 'f', -1, 64))
	}
	if p.OrdType == constants.OrdTypeStop {
		b.Set(constants.TagStopPx, strconv.FormatFloat(p.StopPx, 'f', -1, 64))
	}
	return b
}

func buildOrderCancelRequest(p CancelOrderParams) *wire.Builder {
	return wire.NewBuilder(constants.MsgTypeOrderCancelRequest).
		Set(constants.TagClOrdID, p.ClOrdID).
		SetIfNotEmpty(constants.TagOrigClOrdID, p.OrigClOrdID).
		SetIfNotEmpty(constants.TagOrderID, p.OrderID).
		SetIfNotEmpty(constants.TagSymbol, p.Symbol).
		SetIfNotEmpty(constants.TagSide, p.Side)
}

func buildOrderCancelReplaceRequest(p ReplaceOrderParams) *wire.Builder {
	b := wire.NewBuilder(constants.MsgTypeOrderCancelReplaceRequest).
		Set(constants.TagClOrdID, p.ClOrdID).
		SetIfNotEmpty(constants.TagOrigClOrdID, p.OrigClOrdID).
		SetIfNotEmpty(constants.TagOrderID, p.OrderID).
		SetIfNotEmpty(constants.TagSymbol, p.Symbol).
		SetIfNotEmpty(constants.TagSide, p.Side).
		Set(constants.TagOrderQty, strconv.FormatFloat(p.OrderQty, 'f', -1, 64)).
		SetIfNotEmpty(constants.TagOrdType, p.OrdType)
	if p.OrdType == constants.OrdTypeLimit {
		b.Set(constants.TagPrice, strconv.FormatFloat(p.Price, 'f', -1, 64))
	}
	if p.OrdType == constants.OrdTypeStop {
		b.Set(constants.TagStopPx, strconv.FormatFloat(p.StopPx, 'f', -1, 64))
	}
	return b
}

func newReqID() string { return uuid.NewString() }
