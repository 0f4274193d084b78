// Package constants holds the FIX 4.4 tag numbers, message types and
// enumerated field values used by the venue this client talks to.
package constants

// Tag identifies a FIX field by its numeric tag.
type Tag int

// --- Header / trailer tags ---
const (
	TagBeginString  Tag = 8
	TagBodyLength   Tag = 9
	TagCheckSum     Tag = 10
	TagMsgType      Tag = 35
	TagSenderCompID Tag = 49
	TagSenderSubID  Tag = 50
	TagTargetCompID Tag = 56
	TagTargetSubID  Tag = 57
	TagMsgSeqNum    Tag = 34
	TagSendingTime  Tag = 52
)

// --- Admin / session tags ---
const (
	TagEncryptMethod        Tag = 98
	TagHeartBtInt           Tag = 108
	TagTestReqID            Tag = 112
	TagResetSeqNumFlag      Tag = 141
	TagBeginSeqNo           Tag = 7
	TagEndSeqNo             Tag = 16
	TagNewSeqNo             Tag = 36
	TagGapFillFlag          Tag = 123
	TagRefSeqNum            Tag = 45
	TagRefTagID             Tag = 371
	TagRefMsgType           Tag = 372
	TagSessionRejectReason  Tag = 373
	TagBusinessRejectRefID  Tag = 379
	TagBusinessRejectReason Tag = 380
	TagUsername             Tag = 553
	TagPassword             Tag = 554
	TagText                 Tag = 58
	TagEncodedTextLen       Tag = 354
	TagEncodedText          Tag = 355
)

// --- Order entry tags ---
const (
	TagClOrdID          Tag = 11
	TagOrigClOrdID      Tag = 41
	TagOrderID          Tag = 37
	TagSymbol           Tag = 55
	TagSide             Tag = 54
	TagOrderQty         Tag = 38
	TagOrdType          Tag = 40
	TagPrice            Tag = 44
	TagStopPx           Tag = 99
	TagTimeInForce      Tag = 59
	TagTransactTime     Tag = 60
	TagExpireTime       Tag = 126
	TagOrdStatus        Tag = 39
	TagExecType         Tag = 150
	TagOrdRejReason     Tag = 103
	TagCxlRejResponseTo Tag = 434
	TagCumQty           Tag = 14
	TagLeavesQty        Tag = 151
	TagAvgPx            Tag = 6
	TagLastShares       Tag = 32
	TagDesignation      Tag = 494
)

// --- Market data tags ---
const (
	TagMDReqID                 Tag = 262
	TagSubscriptionRequestType Tag = 263
	TagMarketDepth             Tag = 264
	TagMDUpdateType            Tag = 265
	TagNoRelatedSym            Tag = 146
	TagNoMDEntryTypes          Tag = 267
	TagNoMDEntries             Tag = 268
	TagMDEntryType             Tag = 269
	TagMDEntryPx               Tag = 270
	TagMDEntrySize             Tag = 271
	TagMDEntryID               Tag = 278
	TagMDUpdateAction          Tag = 279
)

// --- Security / positions / mass status tags ---
const (
	TagSecurityReqID           Tag = 320
	TagSecurityResponseID      Tag = 322
	TagSecurityListRequestType Tag = 559
	TagSecurityRequestResult   Tag = 560
	TagSymbolName              Tag = 1007
	TagSymbolDigits            Tag = 1008
	TagMassStatusReqID         Tag = 584
	TagMassStatusReqType       Tag = 585
	TagNoPositions             Tag = 702
	TagLongQty                 Tag = 704
	TagShortQty                Tag = 705
	TagPosReqID                Tag = 710
	TagPosMaintRptID           Tag = 721
	TagTotalNumPosReports      Tag = 727
	TagPosReqResult            Tag = 728
	TagSettlPrice              Tag = 730
	TagTotNumReports           Tag = 911
	TagAbsoluteTP              Tag = 1000
	TagRelativeTP              Tag = 1001
	TagAbsoluteSL              Tag = 1002
	TagRelativeSL              Tag = 1003
	TagTrailingSL              Tag = 1004
	TagTriggerMethodSL         Tag = 1005
	TagGuaranteedSL            Tag = 1006
)

// --- Message Types ---
const (
	// Admin messages
	MsgTypeLogon             = "A"
	MsgTypeHeartbeat         = "0"
	MsgTypeTestRequest       = "1"
	MsgTypeResendRequest     = "2"
	MsgTypeReject            = "3"
	MsgTypeSequenceReset     = "4"
	MsgTypeLogout            = "5"
	MsgTypeExecutionReport   = "8"
	MsgTypeOrderCancelReject = "9"
	MsgTypeBusinessReject    = "j"

	// Market data messages
	MsgTypeMarketDataRequest       = "V"
	MsgTypeMarketDataSnapshot      = "W"
	MsgTypeMarketDataIncremental   = "X"
	MsgTypeMarketDataRequestReject = "Y"

	// Order entry messages
	MsgTypeNewOrderSingle            = "D"
	MsgTypeOrderCancelRequest        = "F"
	MsgTypeOrderCancelReplaceRequest = "G"
	MsgTypeOrderStatusRequest        = "H"

	// Security / positions / mass status
	MsgTypeSecurityListRequest    = "x"
	MsgTypeSecurityList           = "y"
	MsgTypeRequestForPositions    = "AN"
	MsgTypePositionReport         = "AP"
	MsgTypeOrderMassStatusRequest = "AF"
)

// --- Protocol constants ---
const (
	FixTimeFormat     = "20060102-15:04:05.000"
	FixBeginString    = "FIX.4.4"
	EncryptMethodNone = "0"
	ResetSeqNumYes    = "Y"
	MsgSeqNumInit     = 1
)

// --- Side (Tag 54) ---
const (
	SideBuy  = "1"
	SideSell = "2"
)

// --- OrdType (Tag 40) ---
const (
	OrdTypeMarket = "1"
	OrdTypeLimit  = "2"
	OrdTypeStop   = "3"
)

// --- TimeInForce (Tag 59) ---
const (
	TimeInForceDay = "0"
	TimeInForceGTC = "1"
	TimeInForceIOC = "3"
	TimeInForceFOK = "4"
)

// --- OrdStatus (Tag 39) ---
const (
	OrdStatusNew             = "0"
	OrdStatusPartiallyFilled = "1"
	OrdStatusFilled          = "2"
	OrdStatusCanceled        = "4"
	OrdStatusReplaced        = "5"
	OrdStatusPendingCancel   = "6"
	OrdStatusRejected        = "8"
	OrdStatusPendingNew      = "A"
	OrdStatusExpired         = "C"
	OrdStatusPendingReplace  = "E"
)

// --- ExecType (Tag 150) ---
const (
	ExecTypeNew            = "0"
	ExecTypeCanceled       = "4"
	ExecTypeReplaced       = "5"
	ExecTypePendingCancel  = "6"
	ExecTypeRejected       = "8"
	ExecTypePendingNew     = "A"
	ExecTypeExpired        = "C"
	ExecTypeTrade          = "F"
	ExecTypePendingReplace = "E"
	ExecTypeOrderStatus    = "I"
)

// --- Subscription request / MD update types ---
const (
	SubscriptionRequestTypeSnapshot    = "0"
	SubscriptionRequestTypeSubscribe   = "1"
	SubscriptionRequestTypeUnsubscribe = "2"

	MdEntryTypeBid   = "0"
	MdEntryTypeOffer = "1"

	MdUpdateTypeFullRefresh = "0"
	MdUpdateTypeIncremental = "1"

	MdUpdateActionNew    = "0"
	MdUpdateActionChange = "1"
	MdUpdateActionDelete = "2"
)

// --- Mass status request type (Tag 585) ---
const (
	MassStatusReqTypeAllOrders = "7"
)

// --- Session/business reject reasons ---
const (
	SessionRejectReasonInvalidTag         = "0"
	SessionRejectReasonRequiredTagMissing = "1"
	SessionRejectReasonValueIncorrect     = "5"

	BusinessRejectReasonUnknownSecurity = "3"
	BusinessRejectReasonOther           = "0"
)

// IsOpenOrdStatus reports whether an OrdStatus value represents an order
// still live at the venue.
func IsOpenOrdStatus(status string) bool {
	switch status {
	case OrdStatusNew, OrdStatusPartiallyFilled, OrdStatusPendingCancel, OrdStatusPendingNew, OrdStatusPendingReplace:
		return true
	default:
		return false
	}
}
