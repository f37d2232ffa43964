package payment

// PaymentMethod references a tokenized payment method
type PaymentMethod struct {
	ID    string
	Saved bool
}

// Context carries everything a single payment attempt needs across its states.
// One Context belongs to one attempt; it is never shared between attempts.
type Context struct {
	orderID       int64
	amount        int64
	currency      string
	customerID    string
	cartHash      string
	duplicateID   int64
	paymentMethod *PaymentMethod
	intent        *Intent
	err           error
	transitions   []string
}

func NewContext(orderID int64) *Context {
	return &Context{orderID: orderID}
}

func (c *Context) OrderID() int64 {
	return c.orderID
}

func (c *Context) Amount() int64 {
	return c.amount
}

func (c *Context) SetAmount(amount int64) {
	c.amount = amount
}

func (c *Context) Currency() string {
	return c.currency
}

func (c *Context) SetCurrency(currency string) {
	c.currency = currency
}

func (c *Context) CustomerID() string {
	return c.customerID
}

func (c *Context) SetCustomerID(customerID string) {
	c.customerID = customerID
}

func (c *Context) CartHash() string {
	return c.cartHash
}

func (c *Context) SetCartHash(cartHash string) {
	c.cartHash = cartHash
}

// DuplicateOrderID is the previously paid order detected for the same cart, if any
func (c *Context) DuplicateOrderID() int64 {
	return c.duplicateID
}

func (c *Context) SetDuplicateOrderID(orderID int64) {
	c.duplicateID = orderID
}

func (c *Context) PaymentMethod() *PaymentMethod {
	return c.paymentMethod
}

func (c *Context) SetPaymentMethod(pm *PaymentMethod) {
	c.paymentMethod = pm
}

func (c *Context) Intent() *Intent {
	return c.intent
}

func (c *Context) SetIntent(intent *Intent) {
	c.intent = intent
}

// Error returns the error that moved the attempt into an error state
func (c *Context) Error() error {
	return c.err
}

func (c *Context) SetError(err error) {
	c.err = err
}

// LogStateTransition appends a state name. Only the state factory calls it.
func (c *Context) LogStateTransition(state string) {
	c.transitions = append(c.transitions, state)
}

// TransitionLog returns a copy of the recorded state names, oldest first
func (c *Context) TransitionLog() []string {
	out := make([]string, len(c.transitions))
	copy(out, c.transitions)
	return out
}
