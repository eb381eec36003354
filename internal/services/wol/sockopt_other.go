//go:build !unix && !windows

package wol

import "errors"

func setBroadcast(uintptr) error {
	return errors.ErrUnsupported
}
