package coffin

import (
	"fmt"
)

func ResolveRecovery(unknownErr any) error {
	switch rval := unknownErr.(type) {
	case nil:
		return nil

	case error:
		return rval

	case string:
		return fmt.Errorf("%s", rval)

	default:
		return fmt.Errorf("unhandled error type %T", rval)
	}
}
