package contracts

const treasuryVaultABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "vaultId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "token", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "depositor", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "newBalance", "type": "uint256"}
    ],
    "name": "Deposited",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "vaultId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "token", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "newBalance", "type": "uint256"}
    ],
    "name": "Withdrawn",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "vaultId", "type": "uint256"},
      {"indexed": true, "internalType": "uint256", "name": "deploymentId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "strategy", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "token", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": false, "internalType": "bytes32", "name": "pairId", "type": "bytes32"}
    ],
    "name": "CapitalDeployed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "vaultId", "type": "uint256"},
      {"indexed": true, "internalType": "uint256", "name": "deploymentId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "returnedAmount", "type": "uint256"}
    ],
    "name": "CapitalRecalled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "vaultId", "type": "uint256"},
      {"indexed": true, "internalType": "uint256", "name": "deploymentId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "token", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "deployedAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "returnedAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "loss", "type": "uint256"}
    ],
    "name": "LossRealized",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "vaultId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "token", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "yieldAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "feeAmount", "type": "uint256"}
    ],
    "name": "PerformanceFeeAccrued",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "vaultId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "token", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "feeAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "periodSeconds", "type": "uint256"}
    ],
    "name": "ManagementFeeAccrued",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "role", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "account", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"}
    ],
    "name": "RoleGranted",
    "type": "event"
  }
]`
