package enums

// LedgerEventType is stored in ledger_events.type.
type LedgerEventType string

const LedgerEventTypeSaleRecorded LedgerEventType = "sale_recorded"

func (t LedgerEventType) String() string { return string(t) }

func (t LedgerEventType) IsValid() bool {
	return t == LedgerEventTypeSaleRecorded
}
