package decoder

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func (a args) get(name string) (interface{}, error) {
	value, ok := a[name]
	if !ok {
		return nil, fmt.Errorf("missing argument %s", name)
	}
	return value, nil
}

func (a args) address(name string) (string, error) {
	value, err := a.get(name)
	if err != nil {
		return "", err
	}
	addr, err := asAddress(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return addr.Hex(), nil
}

// bigString returns an integer argument as a base-10 string.
func (a args) bigString(name string) (string, error) {
	value, err := a.get(name)
	if err != nil {
		return "", err
	}
	n, err := asBigInt(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return n.String(), nil
}

// smallUint returns an integer argument that must fit in 63 bits (BIGINT columns).
func (a args) smallUint(name string) (uint64, error) {
	value, err := a.get(name)
	if err != nil {
		return 0, err
	}
	n, err := asBigInt(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > math.MaxInt64 {
		return 0, fmt.Errorf("%s: value out of range: %s", name, n.String())
	}
	return n.Uint64(), nil
}

func (a args) int24(name string) (int32, error) {
	value, err := a.get(name)
	if err != nil {
		return 0, err
	}
	n, err := asBigInt(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	v, err := int24FromBig(n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (a args) bytes32(name string) (string, error) {
	value, err := a.get(name)
	if err != nil {
		return "", err
	}
	switch v := value.(type) {
	case [32]byte:
		return hexutil.Encode(v[:]), nil
	case common.Hash:
		return v.Hex(), nil
	default:
		return "", fmt.Errorf("%s: unsupported bytes32 type %T", name, value)
	}
}

func (a args) boolean(name string) (bool, error) {
	value, err := a.get(name)
	if err != nil {
		return false, err
	}
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s: unsupported bool type %T", name, value)
	}
	return v, nil
}

// tuple exposes a decoded struct argument as args keyed by component name.
func (a args) tuple(name string) (args, error) {
	value, err := a.get(name)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s: unsupported tuple type %T", name, value)
	}

	out := make(args, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		key := strings.Split(field.Tag.Get("json"), ",")[0]
		if key == "" {
			key = strings.ToLower(field.Name[:1]) + field.Name[1:]
		}
		out[key] = rv.Field(i).Interface()
	}
	return out, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
