package enums

// EventType names the domain events emitted by the marketplace core.
type EventType string

const (
	EventOrderPlaced EventType = "order.placed"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}
