package model

// Kind tags a decoded protocol event. The tag is stored verbatim in events.event_type.
type Kind string

const (
	KindDeposited               Kind = "Deposited"
	KindWithdrawn               Kind = "Withdrawn"
	KindCapitalDeployed         Kind = "CapitalDeployed"
	KindCapitalRecalled         Kind = "CapitalRecalled"
	KindLossRealized            Kind = "LossRealized"
	KindPerformanceFeeAccrued   Kind = "PerformanceFeeAccrued"
	KindManagementFeeAccrued    Kind = "ManagementFeeAccrued"
	KindOracleSignalUpdated     Kind = "OracleSignalUpdated"
	KindCircuitBreakerTriggered Kind = "CircuitBreakerTriggered"
	KindCircuitBreakerReset     Kind = "CircuitBreakerReset"
	KindOrderPlaced             Kind = "OrderPlaced"
)

// Kinds lists every event kind the pipeline materializes.
var Kinds = []Kind{
	KindDeposited,
	KindWithdrawn,
	KindCapitalDeployed,
	KindCapitalRecalled,
	KindLossRealized,
	KindPerformanceFeeAccrued,
	KindManagementFeeAccrued,
	KindOracleSignalUpdated,
	KindCircuitBreakerTriggered,
	KindCircuitBreakerReset,
	KindOrderPlaced,
}

// KindFromEventName maps an ABI event name to its kind.
func KindFromEventName(name string) (Kind, bool) {
	for _, kind := range Kinds {
		if string(kind) == name {
			return kind, true
		}
	}
	return "", false
}

// EventData is the typed payload of a decoded event. Implementations are
// limited to the types in this file.
type EventData interface {
	Kind() Kind
	eventData()
}

// Deposit is the Deposited payload.
type Deposit struct {
	VaultID    uint64 `json:"vaultId"`
	Token      string `json:"token"`
	Amount     string `json:"amount"`
	Depositor  string `json:"depositor"`
	NewBalance string `json:"newBalance"`
}

// Withdrawal is the Withdrawn payload.
type Withdrawal struct {
	VaultID    uint64 `json:"vaultId"`
	Token      string `json:"token"`
	Amount     string `json:"amount"`
	Recipient  string `json:"recipient"`
	NewBalance string `json:"newBalance"`
}

// Deployment is the CapitalDeployed payload.
type Deployment struct {
	VaultID      uint64 `json:"vaultId"`
	DeploymentID uint64 `json:"deploymentId"`
	Strategy     string `json:"strategy"`
	Token        string `json:"token"`
	Amount       string `json:"amount"`
	PairID       string `json:"pairId"`
}

// Recall is the CapitalRecalled payload.
type Recall struct {
	VaultID        uint64 `json:"vaultId"`
	DeploymentID   uint64 `json:"deploymentId"`
	ReturnedAmount string `json:"returnedAmount"`
}

// Loss is the LossRealized payload.
type Loss struct {
	VaultID        uint64 `json:"vaultId"`
	DeploymentID   uint64 `json:"deploymentId"`
	Token          string `json:"token"`
	DeployedAmount string `json:"deployedAmount"`
	ReturnedAmount string `json:"returnedAmount"`
	Loss           string `json:"loss"`
}

// OracleUpdate is the OracleSignalUpdated payload with the signal tuple flattened.
type OracleUpdate struct {
	PairID            string `json:"pairId"`
	PegDeviation      int32  `json:"pegDeviation"`
	OrderbookDepthBid string `json:"orderbookDepthBid"`
	OrderbookDepthAsk string `json:"orderbookDepthAsk"`
	SignalTimestamp   string `json:"signalTimestamp"`
	Nonce             string `json:"nonce"`
	UpdatedAt         string `json:"updatedAt"`
}

// PerformanceFeeAccrual is the PerformanceFeeAccrued payload.
type PerformanceFeeAccrual struct {
	VaultID     uint64 `json:"vaultId"`
	Token       string `json:"token"`
	YieldAmount string `json:"yieldAmount"`
	FeeAmount   string `json:"feeAmount"`
}

// ManagementFeeAccrual is the ManagementFeeAccrued payload.
type ManagementFeeAccrual struct {
	VaultID       uint64 `json:"vaultId"`
	Token         string `json:"token"`
	FeeAmount     string `json:"feeAmount"`
	PeriodSeconds uint64 `json:"periodSeconds"`
}

// CircuitBreakerTransition covers both CircuitBreakerTriggered and CircuitBreakerReset.
type CircuitBreakerTransition struct {
	PairID    string `json:"pairId"`
	Triggered bool   `json:"triggered"`
	Actor     string `json:"actor"`
}

// OrderPlacement is the OrderPlaced payload.
type OrderPlacement struct {
	PairID  string `json:"pairId"`
	OrderID string `json:"orderId"`
	Tick    int32  `json:"tick"`
	Amount  string `json:"amount"`
	IsBid   bool   `json:"isBid"`
	IsFlip  bool   `json:"isFlip"`
}

func (Deposit) Kind() Kind               { return KindDeposited }
func (Withdrawal) Kind() Kind            { return KindWithdrawn }
func (Deployment) Kind() Kind            { return KindCapitalDeployed }
func (Recall) Kind() Kind                { return KindCapitalRecalled }
func (Loss) Kind() Kind                  { return KindLossRealized }
func (OracleUpdate) Kind() Kind          { return KindOracleSignalUpdated }
func (PerformanceFeeAccrual) Kind() Kind { return KindPerformanceFeeAccrued }
func (ManagementFeeAccrual) Kind() Kind  { return KindManagementFeeAccrued }
func (OrderPlacement) Kind() Kind        { return KindOrderPlaced }

func (c CircuitBreakerTransition) Kind() Kind {
	if c.Triggered {
		return KindCircuitBreakerTriggered
	}
	return KindCircuitBreakerReset
}

func (Deposit) eventData()                  {}
func (Withdrawal) eventData()               {}
func (Deployment) eventData()               {}
func (Recall) eventData()                   {}
func (Loss) eventData()                     {}
func (OracleUpdate) eventData()             {}
func (PerformanceFeeAccrual) eventData()    {}
func (ManagementFeeAccrual) eventData()     {}
func (CircuitBreakerTransition) eventData() {}
func (OrderPlacement) eventData()           {}
