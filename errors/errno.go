// Package errors defines the taxonomic error kinds used throughout gofat.
//
// Every kind is a distinct, comparable value so callers can use the standard
// library's errors.Is against a sentinel, while still being able to attach a
// human-readable message or wrap an underlying cause.
package errors

import "fmt"

// GoFatError is a sentinel error kind. Declaring it as a string (rather than
// a struct) keeps the zero value meaningful and makes every constant trivially
// comparable.
type GoFatError string

func (e GoFatError) Error() string {
	return string(e)
}

// WithMessage returns a DriverError carrying e as its underlying kind and
// message as additional detail.
func (e GoFatError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(e), message),
		kind:          e,
		originalError: e,
	}
}

// WrapError returns a DriverError carrying e as its kind and err as the
// wrapped cause.
func (e GoFatError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(e), err.Error()),
		kind:          e,
		originalError: err,
	}
}

////////////////////////////////////////////////////////////////////////////
// DeviceIo

// ErrDeviceIO indicates the underlying BlockDevice returned an error on
// Read/Write/Flush. It is propagated as-is, never retried.
const ErrDeviceIO = GoFatError("device I/O failed")

////////////////////////////////////////////////////////////////////////////
// UnrecognizedFormat

// ErrUnrecognizedFormat indicates no boot sector dialect (PC, MSX, TOS)
// validated the device's first sector.
const ErrUnrecognizedFormat = GoFatError("disk format not recognized")

////////////////////////////////////////////////////////////////////////////
// Corrupt

// ErrFatMismatch indicates two copies of the File Allocation Table disagree
// and MountOptions.IgnoreFatDifferences was not set.
const ErrFatMismatch = GoFatError("FAT copies disagree")

// ErrFatChainCycle indicates a cluster chain revisits a cluster it has
// already walked through.
const ErrFatChainCycle = GoFatError("cluster chain contains a cycle")

// ErrBadClusterInChain indicates a chain walk encountered a FAT16 "bad
// cluster" marker (0xFFF7) or an otherwise invalid (reserved, out of range)
// entry where a valid cluster or EOC marker was expected.
const ErrBadClusterInChain = GoFatError("invalid cluster encountered in chain")

// ErrFsInfoStale indicates the FAT32 FSInfo sector's cached free-cluster
// count is less than the FAT's authoritative count, treated as corruption.
const ErrFsInfoStale = GoFatError("FSInfo sector is stale")

// ErrBrokenLfnChain is a soft error: an LFN slot sequence is broken (gap,
// wrong ordinal, checksum mismatch). Callers of lfndirectory never see this
// value returned to them; it is absorbed and the short name is used instead.
const ErrBrokenLfnChain = GoFatError("long file name chain is broken")

// ErrDirTerminatorMissing indicates a directory's slot sequence ran out
// without encountering a 0x00 (end-of-directory) first byte.
const ErrDirTerminatorMissing = GoFatError("directory terminator entry missing")

////////////////////////////////////////////////////////////////////////////
// Invariant

// ErrNotDirectory indicates an operation that requires a directory was
// given a file.
const ErrNotDirectory = GoFatError("not a directory")

// ErrNotFile indicates an operation that requires a file was given a
// directory.
const ErrNotFile = GoFatError("not a file")

// ErrDirectoryNotEmpty indicates an attempt to remove a non-empty directory.
const ErrDirectoryNotEmpty = GoFatError("directory not empty")

// ErrNameTooLong indicates a long name exceeds 255 UCS-2 code units.
const ErrNameTooLong = GoFatError("name too long")

// ErrIllegalShortName indicates a short name contains a character outside
// the 8.3 character set.
const ErrIllegalShortName = GoFatError("illegal short name")

// ErrDuplicateName indicates an add/rename operation's target name already
// exists in the destination directory.
const ErrDuplicateName = GoFatError("name already exists")

////////////////////////////////////////////////////////////////////////////
// Capacity

// ErrNoFreeCluster indicates the FAT has no free cluster left to allocate.
const ErrNoFreeCluster = GoFatError("no free cluster available")

// ErrRootDirFull indicates a FAT12/16 fixed-size root directory has no
// remaining slots and cannot grow.
const ErrRootDirFull = GoFatError("root directory is full")

// ErrDeviceTooSmall indicates the device is smaller than the minimum size
// required for the requested (or detected) FAT type.
const ErrDeviceTooSmall = GoFatError("device too small for this FAT type")

// ErrDeviceTooLarge indicates the device is larger than the maximum size
// supported by the requested (or detected) FAT type.
const ErrDeviceTooLarge = GoFatError("device too large for this FAT type")

////////////////////////////////////////////////////////////////////////////
// ReadOnly

// ErrReadOnly indicates a mutating operation was attempted on a read-only
// mount.
const ErrReadOnly = GoFatError("file system is mounted read-only")

////////////////////////////////////////////////////////////////////////////
// Generic argument errors, used by lower-level codecs.

// ErrInvalidArgument indicates a caller passed a value outside the domain
// the function accepts (e.g. a cluster index out of range for SetEntry).
const ErrInvalidArgument = GoFatError("invalid argument")

// ErrNotSupported indicates an operation a type's interface advertises but
// doesn't implement, such as TOS/MSX formatter Init().
const ErrNotSupported = GoFatError("operation not supported")
