package contracts

const dexStrategyABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pairId", "type": "bytes32"},
      {"indexed": true, "internalType": "uint256", "name": "orderId", "type": "uint256"},
      {"indexed": false, "internalType": "int24", "name": "tick", "type": "int24"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": false, "internalType": "bool", "name": "isBid", "type": "bool"},
      {"indexed": false, "internalType": "bool", "name": "isFlip", "type": "bool"}
    ],
    "name": "OrderPlaced",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pairId", "type": "bytes32"},
      {"indexed": true, "internalType": "uint256", "name": "orderId", "type": "uint256"}
    ],
    "name": "OrderCancelled",
    "type": "event"
  },
  {
    "inputs": [],
    "name": "emergencyUnwind",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`
