package source

import (
	"fmt"
	"syscall"
	"unsafe"
)

// comGUID is a COM interface identifier.
type comGUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

const vtblQueryInterface = 0

func comVtblFn(obj uintptr, idx int) uintptr {
	vtablePtr := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtablePtr + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
}

// comCall invokes vtable method idx on obj and converts a failing HRESULT
// into an error.
func comCall(obj uintptr, idx int, args ...uintptr) (uintptr, error) {
	all := make([]uintptr, 0, 1+len(args))
	all = append(all, obj)
	all = append(all, args...)
	ret, _, _ := syscall.SyscallN(comVtblFn(obj, idx), all...)
	if int32(ret) < 0 {
		return ret, fmt.Errorf("COM vtable[%d] HRESULT 0x%08X", idx, uint32(ret))
	}
	return ret, nil
}

// comCallVoid invokes a method without an HRESULT result.
func comCallVoid(obj uintptr, idx int, args ...uintptr) {
	all := make([]uintptr, 0, 1+len(args))
	all = append(all, obj)
	all = append(all, args...)
	syscall.SyscallN(comVtblFn(obj, idx), all...)
}

// comRelease calls IUnknown::Release.
func comRelease(obj uintptr) {
	if obj != 0 {
		comCallVoid(obj, 2)
	}
}
