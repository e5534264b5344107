package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eigerco/beerus/pkg/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"
)

// ParamKind names the schema a single parameter must satisfy.
type ParamKind int

const (
	ParamFelt ParamKind = iota
	ParamBlockID
	ParamUint
	ParamBroadcastedTxn
	ParamBroadcastedTxns
	ParamFunctionCall
	ParamMsgFromL1
	ParamEventFilter
	ParamSimulationFlags
)

func (k ParamKind) String() string {
	switch k {
	case ParamFelt:
		return "felt"
	case ParamBlockID:
		return "block_id"
	case ParamUint:
		return "uint"
	case ParamBroadcastedTxn:
		return "broadcasted_txn"
	case ParamBroadcastedTxns:
		return "broadcasted_txns"
	case ParamFunctionCall:
		return "function_call"
	case ParamMsgFromL1:
		return "msg_from_l1"
	case ParamEventFilter:
		return "event_filter"
	case ParamSimulationFlags:
		return "simulation_flags"
	default:
		return fmt.Sprintf("param(%d)", int(k))
	}
}

// Param is one entry of a method's ordered parameter list.
type Param struct {
	Name string
	Kind ParamKind
}

var txnTypes = map[string]bool{
	"INVOKE":         true,
	"DECLARE":        true,
	"DEPLOY_ACCOUNT": true,
}

var simulationFlags = map[string]bool{
	"SKIP_VALIDATE":   true,
	"SKIP_FEE_CHARGE": true,
}

// checkParams validates raw against the ordered parameter list. Both the
// positional (array) and the named (object) forms are accepted; every
// parameter is required.
func checkParams(params []Param, raw json.RawMessage) error {
	if len(raw) != 0 && !gjson.ValidBytes(raw) {
		return errors.New("params are not valid json")
	}
	v := gjson.ParseBytes(raw)

	switch {
	case len(raw) == 0 || v.Type == gjson.Null:
		if len(params) != 0 {
			return fmt.Errorf("missing param %q", params[0].Name)
		}
		return nil
	case v.IsArray():
		values := v.Array()
		if len(values) > len(params) {
			return fmt.Errorf("too many params: expected %d, got %d", len(params), len(values))
		}
		if len(values) < len(params) {
			return fmt.Errorf("missing param %q", params[len(values)].Name)
		}
		for i, p := range params {
			if err := checkParam(p.Kind, values[i]); err != nil {
				return fmt.Errorf("param %q: %w", p.Name, err)
			}
		}
		return nil
	case v.IsObject():
		known := make(map[string]bool, len(params))
		for _, p := range params {
			known[p.Name] = true
		}
		var unknown string
		v.ForEach(func(key, _ gjson.Result) bool {
			if !known[key.String()] {
				unknown = key.String()
				return false
			}
			return true
		})
		if unknown != "" {
			return fmt.Errorf("unknown param %q", unknown)
		}
		for _, p := range params {
			field := v.Get(p.Name)
			if !field.Exists() {
				return fmt.Errorf("missing param %q", p.Name)
			}
			if err := checkParam(p.Kind, field); err != nil {
				return fmt.Errorf("param %q: %w", p.Name, err)
			}
		}
		return nil
	default:
		return errors.New("params must be an object or an array")
	}
}

// lookupParam returns the raw value of the named parameter. params must
// already have passed checkParams.
func lookupParam(params []Param, raw json.RawMessage, name string) json.RawMessage {
	v := gjson.ParseBytes(raw)
	if v.IsObject() {
		return json.RawMessage(v.Get(name).Raw)
	}
	for i, p := range params {
		if p.Name == name {
			return json.RawMessage(v.Get(strconv.Itoa(i)).Raw)
		}
	}
	return nil
}

func checkParam(kind ParamKind, v gjson.Result) error {
	switch kind {
	case ParamFelt:
		return checkFelt(v)
	case ParamBlockID:
		return checkBlockID(v)
	case ParamUint:
		return checkUint(v)
	case ParamBroadcastedTxn:
		return checkTxn(v)
	case ParamBroadcastedTxns:
		return checkArray(v, checkTxn)
	case ParamFunctionCall:
		return checkFunctionCall(v)
	case ParamMsgFromL1:
		return checkMsgFromL1(v)
	case ParamEventFilter:
		return checkEventFilter(v)
	case ParamSimulationFlags:
		return checkArray(v, func(flag gjson.Result) error {
			if flag.Type != gjson.String || !simulationFlags[flag.Str] {
				return fmt.Errorf("unknown simulation flag %s", flag.Raw)
			}
			return nil
		})
	default:
		return fmt.Errorf("unsupported param kind %s", kind)
	}
}

func checkFelt(v gjson.Result) error {
	if v.Type != gjson.String {
		return fmt.Errorf("expected felt, got %s", v.Type)
	}
	_, err := model.ParseFelt(v.Str)
	return err
}

func checkUint(v gjson.Result) error {
	if v.Type != gjson.Number {
		return fmt.Errorf("expected unsigned integer, got %s", v.Type)
	}
	if _, err := strconv.ParseUint(v.Raw, 10, 64); err != nil {
		return fmt.Errorf("expected unsigned integer, got %s", v.Raw)
	}
	return nil
}

func checkBlockID(v gjson.Result) error {
	var id model.BlockID
	return json.Unmarshal([]byte(v.Raw), &id)
}

func checkArray(v gjson.Result, each func(gjson.Result) error) error {
	if !v.IsArray() {
		return fmt.Errorf("expected array, got %s", v.Type)
	}
	for i, e := range v.Array() {
		if err := each(e); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func checkFields(v gjson.Result, fields map[string]func(gjson.Result) error) error {
	if !v.IsObject() {
		return fmt.Errorf("expected object, got %s", v.Type)
	}
	for name, check := range fields {
		field := v.Get(name)
		if !field.Exists() {
			return fmt.Errorf("missing field %q", name)
		}
		if err := check(field); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

func felts(v gjson.Result) error {
	return checkArray(v, checkFelt)
}

// checkTxn checks the envelope common to all broadcasted transactions. The
// body is left to the upstream node.
func checkTxn(v gjson.Result) error {
	if !v.IsObject() {
		return fmt.Errorf("expected transaction object, got %s", v.Type)
	}
	typ := v.Get("type")
	if typ.Type != gjson.String || !txnTypes[typ.Str] {
		return fmt.Errorf("unknown transaction type %s", typ.Raw)
	}
	if err := checkFelt(v.Get("version")); err != nil {
		return fmt.Errorf("field \"version\": %w", err)
	}
	return nil
}

func checkFunctionCall(v gjson.Result) error {
	return checkFields(v, map[string]func(gjson.Result) error{
		"contract_address":     checkFelt,
		"entry_point_selector": checkFelt,
		"calldata":             felts,
	})
}

func checkMsgFromL1(v gjson.Result) error {
	return checkFields(v, map[string]func(gjson.Result) error{
		"from_address": func(a gjson.Result) error {
			if a.Type != gjson.String || !strings.HasPrefix(a.Str, "0x") || !common.IsHexAddress(a.Str) {
				return fmt.Errorf("invalid eth address %s", a.Raw)
			}
			return nil
		},
		"to_address":           checkFelt,
		"entry_point_selector": checkFelt,
		"payload":              felts,
	})
}

func checkEventFilter(v gjson.Result) error {
	if err := checkFields(v, map[string]func(gjson.Result) error{
		"chunk_size": checkUint,
	}); err != nil {
		return err
	}

	optional := map[string]func(gjson.Result) error{
		"from_block": checkBlockID,
		"to_block":   checkBlockID,
		"address":    checkFelt,
		"keys": func(keys gjson.Result) error {
			return checkArray(keys, felts)
		},
		"continuation_token": func(token gjson.Result) error {
			if token.Type != gjson.String {
				return fmt.Errorf("expected string, got %s", token.Type)
			}
			return nil
		},
	}
	for name, check := range optional {
		if field := v.Get(name); field.Exists() {
			if err := check(field); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
	}
	return nil
}
