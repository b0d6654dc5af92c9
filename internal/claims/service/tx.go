package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "opdclaims/pkg/domain-errors"
)

// numMemberShards spreads members over independent locks so adjudications
// for different members rarely contend.
const numMemberShards = 64

const defaultMemberTxTimeout = 5 * time.Second

// MemberLockRunner serializes finalization per member for stores that have
// no transactions of their own. It does not roll back partial writes.
type MemberLockRunner struct {
	shards  [numMemberShards]sync.Mutex
	timeout time.Duration
}

// NewMemberLockRunner builds a runner. A zero timeout uses the 5s default.
func NewMemberLockRunner(timeout time.Duration) *MemberLockRunner {
	if timeout <= 0 {
		timeout = defaultMemberTxTimeout
	}
	return &MemberLockRunner{timeout: timeout}
}

func (r *MemberLockRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	shard := selectShard(ctx)
	r.shards[shard].Lock()
	defer r.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// selectShard picks a shard from the member ID in context, or shard 0.
func selectShard(ctx context.Context) int {
	if memberID, ok := ctx.Value(txMemberKeyCtx).(string); ok && memberID != "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(memberID))
		return int(h.Sum32() % numMemberShards)
	}
	return 0
}

type txMemberKey struct{}

var txMemberKeyCtx = txMemberKey{}

func withTxMember(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, txMemberKeyCtx, memberID)
}
