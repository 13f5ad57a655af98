package authstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
)

type recorder struct {
	got []*domainauth.Principal
}

func (r *recorder) listen(p *domainauth.Principal) { r.got = append(r.got, p) }

func TestNotifier_DeliversCurrentOnAdd(t *testing.T) {
	n := NewNotifier(nil)
	var rec recorder

	n.Add(rec.listen)

	require.Len(t, rec.got, 1)
	assert.Nil(t, rec.got[0], "signed-out state is delivered as nil")
}

func TestNotifier_PublishOnlyOnUIDChange(t *testing.T) {
	n := NewNotifier(nil)
	var rec recorder
	n.Add(rec.listen)

	assert.True(t, n.Publish(&domainauth.Principal{UID: "u1"}))
	assert.False(t, n.Publish(&domainauth.Principal{UID: "u1", IDToken: "refreshed"}))
	assert.True(t, n.Publish(nil))
	assert.False(t, n.Publish(nil))

	require.Len(t, rec.got, 3)
	assert.Nil(t, rec.got[0])
	assert.Equal(t, "u1", rec.got[1].UID)
	assert.Nil(t, rec.got[2])
	assert.Nil(t, n.Current())
}

func TestNotifier_SilentRefreshUpdatesCurrent(t *testing.T) {
	n := NewNotifier(nil)
	n.Publish(&domainauth.Principal{UID: "u1", IDToken: "a"})
	n.Publish(&domainauth.Principal{UID: "u1", IDToken: "b"})

	cur := n.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "b", cur.IDToken)
}

func TestNotifier_RemoveStopsDelivery(t *testing.T) {
	n := NewNotifier(nil)
	var rec recorder
	remove := n.Add(rec.listen)

	remove()
	remove()
	n.Publish(&domainauth.Principal{UID: "u1"})

	assert.Len(t, rec.got, 1)
}

func TestNotifier_ListenersReceiveCopies(t *testing.T) {
	n := NewNotifier(nil)
	var rec recorder
	n.Add(rec.listen)

	p := &domainauth.Principal{UID: "u1"}
	n.Publish(p)
	p.UID = "mutated"

	require.Len(t, rec.got, 2)
	assert.Equal(t, "u1", rec.got[1].UID)
}

// deferred queues posted funcs until flushed, modelling a busy main queue.
type deferred struct{ fns []func() }

func (d *deferred) Post(fn func()) { d.fns = append(d.fns, fn) }

func (d *deferred) flush() {
	for len(d.fns) > 0 {
		fn := d.fns[0]
		d.fns = d.fns[1:]
		fn()
	}
}

func TestNotifier_RemovedBeforeDispatchIsSkipped(t *testing.T) {
	d := &deferred{}
	n := NewNotifier(d)
	var rec recorder

	remove := n.Add(rec.listen)
	n.Publish(&domainauth.Principal{UID: "u1"})
	remove()
	d.flush()

	assert.Empty(t, rec.got)
}

func TestNotifier_OrderPreservedThroughDispatcher(t *testing.T) {
	d := &deferred{}
	n := NewNotifier(d)
	var rec recorder

	n.Add(rec.listen)
	n.Publish(&domainauth.Principal{UID: "u1"})
	n.Publish(&domainauth.Principal{UID: "u2"})
	n.Publish(nil)
	d.flush()

	require.Len(t, rec.got, 4)
	assert.Nil(t, rec.got[0])
	assert.Equal(t, "u1", rec.got[1].UID)
	assert.Equal(t, "u2", rec.got[2].UID)
	assert.Nil(t, rec.got[3])
}
