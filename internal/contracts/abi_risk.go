package contracts

const riskControllerABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pairId", "type": "bytes32"},
      {
        "indexed": false,
        "internalType": "struct RiskController.OracleSignal",
        "name": "signal",
        "type": "tuple",
        "components": [
          {"internalType": "int24", "name": "pegDeviation", "type": "int24"},
          {"internalType": "uint256", "name": "orderbookDepthBid", "type": "uint256"},
          {"internalType": "uint256", "name": "orderbookDepthAsk", "type": "uint256"},
          {"internalType": "uint256", "name": "timestamp", "type": "uint256"},
          {"internalType": "uint256", "name": "nonce", "type": "uint256"}
        ]
      },
      {"indexed": false, "internalType": "uint256", "name": "updatedAt", "type": "uint256"}
    ],
    "name": "OracleSignalUpdated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pairId", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "triggeredBy", "type": "address"}
    ],
    "name": "CircuitBreakerTriggered",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pairId", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "resetBy", "type": "address"}
    ],
    "name": "CircuitBreakerReset",
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
