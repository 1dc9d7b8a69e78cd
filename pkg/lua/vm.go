package lua

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

type VM struct {
	state *lua.State
}

func NewVM() *VM {
	state := lua.NewState()
	openSafeLibraries(state)
	return &VM{state: state}
}

func openSafeLibraries(state *lua.State) {
	lua.OpenLibraries(state)

	state.PushNil()
	state.SetGlobal("io")

	state.PushNil()
	state.SetGlobal("os")

	state.PushNil()
	state.SetGlobal("debug")

	state.PushNil()
	state.SetGlobal("dofile")

	state.PushNil()
	state.SetGlobal("loadfile")
}

func (vm *VM) LoadFile(path string) error {
	if err := lua.DoFile(vm.state, path); err != nil {
		return fmt.Errorf("failed to load lua file %s: %w", path, err)
	}
	return nil
}

func (vm *VM) LoadString(code string) error {
	if err := lua.DoString(vm.state, code); err != nil {
		return fmt.Errorf("failed to load lua string: %w", err)
	}
	return nil
}

func (vm *VM) GetGlobalString(name string) (string, error) {
	vm.state.Global(name)
	if !vm.state.IsString(-1) {
		vm.state.Pop(1)
		return "", fmt.Errorf("global %s is not a string", name)
	}
	value, _ := vm.state.ToString(-1)
	vm.state.Pop(1)
	return value, nil
}

func (vm *VM) CallFunctionWithReturn(name string, numReturns int, args ...interface{}) ([]interface{}, error) {
	vm.state.Global(name)
	if !vm.state.IsFunction(-1) {
		vm.state.Pop(1)
		return nil, fmt.Errorf("global %s is not a function", name)
	}

	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			vm.state.PushString(v)
		case int:
			vm.state.PushInteger(v)
		case float64:
			vm.state.PushNumber(v)
		case bool:
			vm.state.PushBoolean(v)
		default:
			// the function and the arguments pushed so far
			vm.state.Pop(1 + i)
			return nil, fmt.Errorf("unsupported argument type: %T", arg)
		}
	}

	if err := vm.state.ProtectedCall(len(args), numReturns, 0); err != nil {
		vm.state.Pop(1)
		return nil, fmt.Errorf("[Lua Error] function %s: %w", name, err)
	}

	results := make([]interface{}, numReturns)
	for i := numReturns - 1; i >= 0; i-- {
		stackIndex := -1 - (numReturns - 1 - i)
		switch vm.state.TypeOf(stackIndex) {
		case lua.TypeString:
			value, _ := vm.state.ToString(stackIndex)
			results[i] = value
		case lua.TypeNumber:
			value, _ := vm.state.ToNumber(stackIndex)
			results[i] = value
		case lua.TypeBoolean:
			results[i] = vm.state.ToBoolean(stackIndex)
		default:
			results[i] = nil
		}
	}
	vm.state.Pop(numReturns)

	return results, nil
}

func (vm *VM) HasFunction(name string) bool {
	vm.state.Global(name)
	isFunc := vm.state.IsFunction(-1)
	vm.state.Pop(1)
	return isFunc
}

func (vm *VM) State() *lua.State {
	return vm.state
}
