// Package flock provides cross-platform file locking utilities.
//
// The product cache and the progress ledger are single-writer documents; an
// exclusive lock on a sibling ".lock" file keeps two goalsync processes
// pointed at the same state directory from interleaving their writes.
//
// Usage:
//
//	lock, err := flock.Acquire(ctx, path+".lock", constants.LockTimeout)
//	if err != nil {
//	    return err // errors.ErrLockTimeout when another run holds it
//	}
//	defer lock.Release()
package flock
