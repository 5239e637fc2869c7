/*
 * Copyright (c) 2024, NVIDIA CORPORATION.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package nvml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindUninitialized
	KindInvalidArgument
	KindNotSupported
	KindInsufficientPermissions
	KindAlreadyInitialized
	KindNotFound
	KindInsufficientSize
	KindInsufficientPower
	KindDriverNotLoaded
	KindTimeout
	KindIrqIssue
	KindLibraryNotFound
	KindFunctionNotFound
	KindCorruptedInfoROM
	KindGpuIsLost
	KindResetRequired
	KindOperatingSystemError
	KindLibRmVersionMismatch
	KindInUse
	KindInsufficientMemory
	KindNoData
	KindVgpuEccNotSupported
	KindInsufficientResources
	KindFreqNotSupported
	KindArgumentVersionMismatch
	KindDeprecatedAPI
	KindNotReady
	KindGpuNotFound
	KindInvalidState
	// KindEncoding reports a successful native call whose output could not
	// be interpreted: text without a terminator or not valid UTF-8, or a
	// payload length larger than its buffer.
	KindEncoding
)

var kindNames = map[Kind]string{
	KindUnknown:                 "Unknown",
	KindUninitialized:           "Uninitialized",
	KindInvalidArgument:         "InvalidArgument",
	KindNotSupported:            "NotSupported",
	KindInsufficientPermissions: "InsufficientPermissions",
	KindAlreadyInitialized:      "AlreadyInitialized",
	KindNotFound:                "NotFound",
	KindInsufficientSize:        "InsufficientSize",
	KindInsufficientPower:       "InsufficientPower",
	KindDriverNotLoaded:         "DriverNotLoaded",
	KindTimeout:                 "Timeout",
	KindIrqIssue:                "IrqIssue",
	KindLibraryNotFound:         "LibraryNotFound",
	KindFunctionNotFound:        "FunctionNotFound",
	KindCorruptedInfoROM:        "CorruptedInfoROM",
	KindGpuIsLost:               "GpuIsLost",
	KindResetRequired:           "ResetRequired",
	KindOperatingSystemError:    "OperatingSystemError",
	KindLibRmVersionMismatch:    "LibRmVersionMismatch",
	KindInUse:                   "InUse",
	KindInsufficientMemory:      "InsufficientMemory",
	KindNoData:                  "NoData",
	KindVgpuEccNotSupported:     "VgpuEccNotSupported",
	KindInsufficientResources:   "InsufficientResources",
	KindFreqNotSupported:        "FreqNotSupported",
	KindArgumentVersionMismatch: "ArgumentVersionMismatch",
	KindDeprecatedAPI:           "DeprecatedApi",
	KindNotReady:                "NotReady",
	KindGpuNotFound:             "GpuNotFound",
	KindInvalidState:            "InvalidState",
	KindEncoding:                "Encoding",
}

var kindMessages = map[Kind]string{
	KindUnknown:                 "an unknown internal error occurred",
	KindUninitialized:           "NVML was not first initialized",
	KindInvalidArgument:         "a supplied argument is invalid",
	KindNotSupported:            "the requested operation is not available on the target device",
	KindInsufficientPermissions: "the current user does not have permission for the operation",
	KindAlreadyInitialized:      "NVML has already been initialized",
	KindNotFound:                "a query to find an object was unsuccessful",
	KindInsufficientSize:        "an input argument is not large enough",
	KindInsufficientPower:       "a device's external power cables are not properly attached",
	KindDriverNotLoaded:         "the NVIDIA driver is not loaded",
	KindTimeout:                 "the provided timeout has passed",
	KindIrqIssue:                "the NVIDIA kernel detected an interrupt issue with a GPU",
	KindLibraryNotFound:         "the NVML shared library could not be found or loaded",
	KindFunctionNotFound:        "the loaded NVML library does not implement this function",
	KindCorruptedInfoROM:        "the infoROM is corrupted",
	KindGpuIsLost:               "the GPU has fallen off the bus or has otherwise become inaccessible",
	KindResetRequired:           "the GPU requires a reset before it can be used again",
	KindOperatingSystemError:    "the GPU control device has been blocked by the operating system or cgroups",
	KindLibRmVersionMismatch:    "the NVML library and the kernel driver versions do not match",
	KindInUse:                   "the operation cannot be performed because the GPU is currently in use",
	KindInsufficientMemory:      "insufficient memory",
	KindNoData:                  "no data",
	KindVgpuEccNotSupported:     "the requested vGPU operation is not available because ECC is enabled",
	KindInsufficientResources:   "the system does not have enough resources",
	KindFreqNotSupported:        "the specified frequency is not supported",
	KindArgumentVersionMismatch: "the provided struct version is invalid or unsupported",
	KindDeprecatedAPI:           "the requested functionality has been deprecated",
	KindNotReady:                "the system is not ready for the request",
	KindGpuNotFound:             "no GPUs were found",
	KindInvalidState:            "the resource is in an invalid state to process the request",
	KindEncoding:                "the native output buffer could not be decoded",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var codeKinds = map[int32]Kind{
	symtab.ErrorUninitialized:           KindUninitialized,
	symtab.ErrorInvalidArgument:         KindInvalidArgument,
	symtab.ErrorNotSupported:            KindNotSupported,
	symtab.ErrorNoPermission:            KindInsufficientPermissions,
	symtab.ErrorAlreadyInitialized:      KindAlreadyInitialized,
	symtab.ErrorNotFound:                KindNotFound,
	symtab.ErrorInsufficientSize:        KindInsufficientSize,
	symtab.ErrorInsufficientPower:       KindInsufficientPower,
	symtab.ErrorDriverNotLoaded:         KindDriverNotLoaded,
	symtab.ErrorTimeout:                 KindTimeout,
	symtab.ErrorIrqIssue:                KindIrqIssue,
	symtab.ErrorLibraryNotFound:         KindLibraryNotFound,
	symtab.ErrorFunctionNotFound:        KindFunctionNotFound,
	symtab.ErrorCorruptedInforom:        KindCorruptedInfoROM,
	symtab.ErrorGpuIsLost:               KindGpuIsLost,
	symtab.ErrorResetRequired:           KindResetRequired,
	symtab.ErrorOperatingSystem:         KindOperatingSystemError,
	symtab.ErrorLibRmVersionMismatch:    KindLibRmVersionMismatch,
	symtab.ErrorInUse:                   KindInUse,
	symtab.ErrorMemory:                  KindInsufficientMemory,
	symtab.ErrorNoData:                  KindNoData,
	symtab.ErrorVgpuEccNotSupported:     KindVgpuEccNotSupported,
	symtab.ErrorInsufficientResources:   KindInsufficientResources,
	symtab.ErrorFreqNotSupported:        KindFreqNotSupported,
	symtab.ErrorArgumentVersionMismatch: KindArgumentVersionMismatch,
	symtab.ErrorDeprecated:              KindDeprecatedAPI,
	symtab.ErrorNotReady:                KindNotReady,
	symtab.ErrorGpuNotFound:             KindGpuNotFound,
	symtab.ErrorInvalidState:            KindInvalidState,
	symtab.ErrorUnknown:                 KindUnknown,
}

// Error is returned by every fallible operation of the package.
type Error struct {
	Kind Kind
	// Code is the raw nvmlReturn_t. It is zero for errors raised on this
	// side of the boundary (unresolved symbols, decoding, closed library).
	Code int32
	// Symbol is the NVML entry point involved, if any.
	Symbol string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Symbol != "" {
		b.WriteString(e.Symbol)
		b.WriteString(": ")
	}
	b.WriteString(kindMessages[e.Kind])
	if e.Kind == KindUnknown && e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches target when it is an *Error of the same kind. Code and Symbol
// of target are compared only when set.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Code != 0 && t.Code != e.Code {
		return false
	}
	return t.Symbol == "" || t.Symbol == e.Symbol
}

// Sentinels for use with errors.Is.
var (
	ErrUnknown                 = &Error{Kind: KindUnknown}
	ErrUninitialized           = &Error{Kind: KindUninitialized}
	ErrInvalidArgument         = &Error{Kind: KindInvalidArgument}
	ErrNotSupported            = &Error{Kind: KindNotSupported}
	ErrInsufficientPermissions = &Error{Kind: KindInsufficientPermissions}
	ErrAlreadyInitialized      = &Error{Kind: KindAlreadyInitialized}
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrInsufficientSize        = &Error{Kind: KindInsufficientSize}
	ErrInsufficientPower       = &Error{Kind: KindInsufficientPower}
	ErrDriverNotLoaded         = &Error{Kind: KindDriverNotLoaded}
	ErrTimeout                 = &Error{Kind: KindTimeout}
	ErrIrqIssue                = &Error{Kind: KindIrqIssue}
	ErrLibraryNotFound         = &Error{Kind: KindLibraryNotFound}
	ErrFunctionNotFound        = &Error{Kind: KindFunctionNotFound}
	ErrCorruptedInfoROM        = &Error{Kind: KindCorruptedInfoROM}
	ErrGpuIsLost               = &Error{Kind: KindGpuIsLost}
	ErrResetRequired           = &Error{Kind: KindResetRequired}
	ErrOperatingSystem         = &Error{Kind: KindOperatingSystemError}
	ErrLibRmVersionMismatch    = &Error{Kind: KindLibRmVersionMismatch}
	ErrInUse                   = &Error{Kind: KindInUse}
	ErrInsufficientMemory      = &Error{Kind: KindInsufficientMemory}
	ErrNoData                  = &Error{Kind: KindNoData}
	ErrVgpuEccNotSupported     = &Error{Kind: KindVgpuEccNotSupported}
	ErrInsufficientResources   = &Error{Kind: KindInsufficientResources}
	ErrFreqNotSupported        = &Error{Kind: KindFreqNotSupported}
	ErrArgumentVersionMismatch = &Error{Kind: KindArgumentVersionMismatch}
	ErrDeprecatedAPI           = &Error{Kind: KindDeprecatedAPI}
	ErrNotReady                = &Error{Kind: KindNotReady}
	ErrGpuNotFound             = &Error{Kind: KindGpuNotFound}
	ErrInvalidState            = &Error{Kind: KindInvalidState}
	ErrEncoding                = &Error{Kind: KindEncoding}
)

// ErrLibraryClosed is wrapped by the Uninitialized error returned from
// calls made after Shutdown.
var ErrLibraryClosed = errors.New("library has been shut down")

var errNoLibrary = errors.New("handle is not bound to a library")

// Translate converts an nvmlReturn_t into an error. Success yields nil.
// Codes without a known kind map to KindUnknown with Code preserved.
func Translate(code int32) error {
	if code == symtab.Success {
		return nil
	}
	return &Error{Kind: codeKinds[code], Code: code}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func statusError(symbol string, code int32) error {
	if code == symtab.Success {
		return nil
	}
	return &Error{Kind: codeKinds[code], Code: code, Symbol: symbol}
}

func encodingError(symbol string, err error) error {
	return &Error{Kind: KindEncoding, Symbol: symbol, Err: err}
}
