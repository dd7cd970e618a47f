package decoder

import (
	"fmt"

	"vaultIndexer/internal/model"
)

type args map[string]interface{}

// build converts unpacked arguments into the payload for kind.
func build(kind model.Kind, a args) (model.EventData, error) {
	switch kind {
	case model.KindDeposited:
		return buildDeposit(a)
	case model.KindWithdrawn:
		return buildWithdrawal(a)
	case model.KindCapitalDeployed:
		return buildDeployment(a)
	case model.KindCapitalRecalled:
		return buildRecall(a)
	case model.KindLossRealized:
		return buildLoss(a)
	case model.KindPerformanceFeeAccrued:
		return buildPerformanceFee(a)
	case model.KindManagementFeeAccrued:
		return buildManagementFee(a)
	case model.KindOracleSignalUpdated:
		return buildOracleUpdate(a)
	case model.KindCircuitBreakerTriggered:
		return buildCircuitBreaker(a, "triggeredBy", true)
	case model.KindCircuitBreakerReset:
		return buildCircuitBreaker(a, "resetBy", false)
	case model.KindOrderPlaced:
		return buildOrderPlacement(a)
	default:
		return nil, fmt.Errorf("no payload builder for %s", kind)
	}
}

func buildDeposit(a args) (model.EventData, error) {
	var (
		out model.Deposit
		err error
	)
	if out.VaultID, err = a.smallUint("vaultId"); err != nil {
		return nil, err
	}
	if out.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if out.Amount, err = a.bigString("amount"); err != nil {
		return nil, err
	}
	if out.Depositor, err = a.address("depositor"); err != nil {
		return nil, err
	}
	if out.NewBalance, err = a.bigString("newBalance"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildWithdrawal(a args) (model.EventData, error) {
	var (
		out model.Withdrawal
		err error
	)
	if out.VaultID, err = a.smallUint("vaultId"); err != nil {
		return nil, err
	}
	if out.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if out.Amount, err = a.bigString("amount"); err != nil {
		return nil, err
	}
	if out.Recipient, err = a.address("recipient"); err != nil {
		return nil, err
	}
	if out.NewBalance, err = a.bigString("newBalance"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildDeployment(a args) (model.EventData, error) {
	var (
		out model.Deployment
		err error
	)
	if out.VaultID, err = a.smallUint("vaultId"); err != nil {
		return nil, err
	}
	if out.DeploymentID, err = a.smallUint("deploymentId"); err != nil {
		return nil, err
	}
	if out.Strategy, err = a.address("strategy"); err != nil {
		return nil, err
	}
	if out.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if out.Amount, err = a.bigString("amount"); err != nil {
		return nil, err
	}
	if out.PairID, err = a.bytes32("pairId"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildRecall(a args) (model.EventData, error) {
	var (
		out model.Recall
		err error
	)
	if out.VaultID, err = a.smallUint("vaultId"); err != nil {
		return nil, err
	}
	if out.DeploymentID, err = a.smallUint("deploymentId"); err != nil {
		return nil, err
	}
	if out.ReturnedAmount, err = a.bigString("returnedAmount"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildLoss(a args) (model.EventData, error) {
	var (
		out model.Loss
		err error
	)
	if out.VaultID, err = a.smallUint("vaultId"); err != nil {
		return nil, err
	}
	if out.DeploymentID, err = a.smallUint("deploymentId"); err != nil {
		return nil, err
	}
	if out.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if out.DeployedAmount, err = a.bigString("deployedAmount"); err != nil {
		return nil, err
	}
	if out.ReturnedAmount, err = a.bigString("returnedAmount"); err != nil {
		return nil, err
	}
	if out.Loss, err = a.bigString("loss"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildPerformanceFee(a args) (model.EventData, error) {
	var (
		out model.PerformanceFeeAccrual
		err error
	)
	if out.VaultID, err = a.smallUint("vaultId"); err != nil {
		return nil, err
	}
	if out.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if out.YieldAmount, err = a.bigString("yieldAmount"); err != nil {
		return nil, err
	}
	if out.FeeAmount, err = a.bigString("feeAmount"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildManagementFee(a args) (model.EventData, error) {
	var (
		out model.ManagementFeeAccrual
		err error
	)
	if out.VaultID, err = a.smallUint("vaultId"); err != nil {
		return nil, err
	}
	if out.Token, err = a.address("token"); err != nil {
		return nil, err
	}
	if out.FeeAmount, err = a.bigString("feeAmount"); err != nil {
		return nil, err
	}
	if out.PeriodSeconds, err = a.smallUint("periodSeconds"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildOracleUpdate(a args) (model.EventData, error) {
	var (
		out model.OracleUpdate
		err error
	)
	if out.PairID, err = a.bytes32("pairId"); err != nil {
		return nil, err
	}
	signal, err := a.tuple("signal")
	if err != nil {
		return nil, err
	}
	if out.PegDeviation, err = signal.int24("pegDeviation"); err != nil {
		return nil, err
	}
	if out.OrderbookDepthBid, err = signal.bigString("orderbookDepthBid"); err != nil {
		return nil, err
	}
	if out.OrderbookDepthAsk, err = signal.bigString("orderbookDepthAsk"); err != nil {
		return nil, err
	}
	if out.SignalTimestamp, err = signal.bigString("timestamp"); err != nil {
		return nil, err
	}
	if out.Nonce, err = signal.bigString("nonce"); err != nil {
		return nil, err
	}
	if out.UpdatedAt, err = a.bigString("updatedAt"); err != nil {
		return nil, err
	}
	return out, nil
}

func buildCircuitBreaker(a args, actorField string, triggered bool) (model.EventData, error) {
	var (
		out = model.CircuitBreakerTransition{Triggered: triggered}
		err error
	)
	if out.PairID, err = a.bytes32("pairId"); err != nil {
		return nil, err
	}
	if out.Actor, err = a.address(actorField); err != nil {
		return nil, err
	}
	return out, nil
}

func buildOrderPlacement(a args) (model.EventData, error) {
	var (
		out model.OrderPlacement
		err error
	)
	if out.PairID, err = a.bytes32("pairId"); err != nil {
		return nil, err
	}
	if out.OrderID, err = a.bigString("orderId"); err != nil {
		return nil, err
	}
	if out.Tick, err = a.int24("tick"); err != nil {
		return nil, err
	}
	if out.Amount, err = a.bigString("amount"); err != nil {
		return nil, err
	}
	if out.IsBid, err = a.boolean("isBid"); err != nil {
		return nil, err
	}
	if out.IsFlip, err = a.boolean("isFlip"); err != nil {
		return nil, err
	}
	return out, nil
}
