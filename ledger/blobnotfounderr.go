package ledger

import (
	"fmt"

	azStorageBlob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const (
	azblobBlobNotFound      = "BlobNotFound"
	azblobConditionNotMet   = "ConditionNotMet"
	azblobBlobAlreadyExists = "BlobAlreadyExists"
)

func AsStorageError(err error) (azStorageBlob.StorageError, bool) {
	serr := &azStorageBlob.StorageError{}
	//nolint
	ierr, ok := err.(*azStorageBlob.InternalError)
	if ierr == nil || !ok {
		return azStorageBlob.StorageError{}, false
	}
	if !ierr.As(&serr) {
		return azStorageBlob.StorageError{}, false
	}
	return *serr, true
}

// WrapBlobNotFound translates err to ErrSlotNotFound if it is the azure sdk
// blob not found error. Any other err, including nil, is returned as is.
func WrapBlobNotFound(err error) error {
	if err == nil {
		return nil
	}
	serr, ok := AsStorageError(err)
	if !ok {
		return err
	}
	if serr.ErrorCode != azblobBlobNotFound {
		return err
	}
	return fmt.Errorf("%s: %w", err.Error(), ErrSlotNotFound)
}

// WrapPreconditionFailed translates the azure etag precondition failures to
// the optimistic concurrency errors of this package.
func WrapPreconditionFailed(err error) error {
	if err == nil {
		return nil
	}
	serr, ok := AsStorageError(err)
	if !ok {
		return err
	}
	switch serr.ErrorCode {
	case azblobConditionNotMet:
		return fmt.Errorf("%s: %w", err.Error(), ErrContentOC)
	case azblobBlobAlreadyExists:
		return fmt.Errorf("%s: %w", err.Error(), ErrExistsOC)
	}
	return err
}
