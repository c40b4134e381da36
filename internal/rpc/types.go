package rpc

import "encoding/json"

// CodeRateLimited is the JSON-RPC error code some providers use to
// signal throttling in a 200 response.
const CodeRateLimited = -32429

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// SignatureInfo represents a transaction signature from getSignaturesForAddress
type SignatureInfo struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	Err       interface{} `json:"err"`
	BlockTime int64       `json:"blockTime"`
}

// SignaturesResponse is the response from getSignaturesForAddress
type SignaturesResponse struct {
	Result []SignatureInfo `json:"result"`
	Error  *RPCError       `json:"error"`
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       int     `json:"decimals"`
	UIAmountString string  `json:"uiAmountString"`
	UIAmount       float64 `json:"uiAmount"`
}

// ParsedInfo is the info block of a parsed token instruction. Fields
// not present for a given instruction type stay zero-valued.
type ParsedInfo struct {
	Source      string       `json:"source"`
	Destination string       `json:"destination"`
	Authority   string       `json:"authority"`
	Mint        string       `json:"mint"`
	Amount      string       `json:"amount"`
	TokenAmount *TokenAmount `json:"tokenAmount"`
}

// ParsedInstruction is the parsed form of an instruction in jsonParsed
// encoding.
type ParsedInstruction struct {
	Type string     `json:"type"`
	Info ParsedInfo `json:"info"`
}

// Instruction is one instruction of a jsonParsed transaction. Parsed is
// kept raw because some programs (e.g. memo) encode it as a bare string.
type Instruction struct {
	Program   string          `json:"program"`
	ProgramID string          `json:"programId"`
	Parsed    json.RawMessage `json:"parsed"`
}

// ParsedTransfer decodes the parsed payload, tolerating non-object
// shapes. Returns nil when the instruction has no usable parsed form.
func (in Instruction) ParsedTransfer() *ParsedInstruction {
	if len(in.Parsed) == 0 {
		return nil
	}
	var p ParsedInstruction
	if err := json.Unmarshal(in.Parsed, &p); err != nil {
		return nil
	}
	if p.Type == "" {
		return nil
	}
	return &p
}

// InnerInstructionGroup is one group of inner instructions attached to a
// top-level instruction index.
type InnerInstructionGroup struct {
	Index        int           `json:"index"`
	Instructions []Instruction `json:"instructions"`
}

// TransactionMeta contains metadata about a transaction
type TransactionMeta struct {
	Err               interface{}             `json:"err"`
	InnerInstructions []InnerInstructionGroup `json:"innerInstructions"`
}

// TransactionMessage contains the transaction message
type TransactionMessage struct {
	Instructions []Instruction `json:"instructions"`
}

// Transaction represents a parsed transaction
type Transaction struct {
	Message TransactionMessage `json:"message"`
}

// TransactionResult contains the full transaction data
type TransactionResult struct {
	BlockTime   int64            `json:"blockTime"`
	Meta        *TransactionMeta `json:"meta"`
	Transaction *Transaction     `json:"transaction"`
}

// TransactionResponse is the response from getTransaction
type TransactionResponse struct {
	Result *TransactionResult `json:"result"`
	Error  *RPCError          `json:"error"`
}

// LargestAccount is one entry of getTokenLargestAccounts, ranked by
// balance descending upstream.
type LargestAccount struct {
	Address        string  `json:"address"`
	Amount         string  `json:"amount"`
	Decimals       int     `json:"decimals"`
	UIAmount       float64 `json:"uiAmount"`
	UIAmountString string  `json:"uiAmountString"`
}

type largestAccountsResponse struct {
	Result struct {
		Value []LargestAccount `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

type balanceResponse struct {
	Result struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

type tokenSupplyResponse struct {
	Result struct {
		Value TokenAmount `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

type tokenAccountsResponse struct {
	Result struct {
		Value []struct {
			Pubkey  string `json:"pubkey"`
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount TokenAmount `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

type accountInfoResponse struct {
	Result struct {
		Value *struct {
			Data struct {
				Parsed struct {
					Info struct {
						Owner string `json:"owner"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
