package hypergate

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	userA   = uuid.MustParse("9c0d81b7-12aa-4f3e-8b20-6f5e0a2daa20")
	friendA = "1d7e43f0-55cc-4e8a-b1a9-0e2f6b8caa21"
	friendB = "2e8f54a1-66dd-4f9b-c2ba-1f306b9daa22"
	friendC = "3f906501-77ee-4aac-93cb-20417acfaa23"
)

type fakeSession struct {
	mu      sync.Mutex
	online  [][]string
	offline [][]string
}

func (s *fakeSession) SendOnline(friends []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = append(s.online, friends)
}

func (s *fakeSession) SendOffline(friends []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = append(s.offline, friends)
}

type fakeDirectory struct {
	mu      sync.Mutex
	session *fakeSession
	known   uuid.UUID
	updates []bool
	cached  []string
}

func (d *fakeDirectory) Locate(userID uuid.UUID) (Session, bool) {
	if d.session == nil || userID != d.known {
		return nil, false
	}
	return d.session, true
}

func (d *fakeDirectory) UpdateOnlineFriends(userID uuid.UUID, friends []string, online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, online)
	d.cached = friends
}

func TestGroupByDomain(t *testing.T) {
	groups := GroupByDomain([]string{
		friendA + ";http://gridone.example:8002/;Alice Aster",
		friendB + ";http://gridone.example:8002/",
		friendC + ";http://gridtwo.example:8002/;Cid Vale",
		"4a0176b2-88ff-4bbd-a4dc-31528bd0aa24", // local, dropped
		"not an identifier",
	})

	require.Len(t, groups, 2)
	require.ElementsMatch(t, []string{friendA, friendB}, groups["http://gridone.example:8002/"])
	require.Equal(t, []string{friendC}, groups["http://gridtwo.example:8002/"])
}

func TestPresence_NotifyDeliversPerDomainAndMerges(t *testing.T) {
	var calls1, calls2 atomic.Int32

	grid1 := xmlrpcServer(func(body string) string {
		calls1.Add(1)
		require.Contains(t, body, "<methodName>status_notification</methodName>")
		require.Contains(t, body, userA.String())
		require.Contains(t, body, friendA)
		require.NotContains(t, body, friendC, "only this grid's friends travel")
		return xmlStructResponse(
			xmlMember("result", xmlValueString("true")),
			xmlMember("friends", xmlValueArray(xmlValueString(friendA))),
		)
	})
	defer grid1.Close()

	grid2 := xmlrpcServer(func(body string) string {
		calls2.Add(1)
		require.Contains(t, body, friendC)
		return xmlStructResponse(
			xmlMember("result", xmlValueString("true")),
			xmlMember("friends", xmlValueArray(xmlValueString(friendC))),
		)
	})
	defer grid2.Close()

	session := &fakeSession{}
	directory := &fakeDirectory{session: session, known: userA}
	fed := newTestFederation(t, WithSessionDirectory(directory))

	confirmed, err := fed.Presence().Notify(userA, map[string][]string{
		grid1.URL: {friendA, friendB},
		grid2.URL: {friendC},
	}, true)

	require.NoError(t, err)
	require.ElementsMatch(t, []string{friendA, friendC}, confirmed)
	require.Equal(t, int32(1), calls1.Load(), "one call per domain")
	require.Equal(t, int32(1), calls2.Load())
	require.Len(t, session.online, 1)
	require.ElementsMatch(t, []string{friendA, friendC}, session.online[0])
	require.Empty(t, session.offline)
	require.Equal(t, []bool{true}, directory.updates)
}

func TestPresence_OneDeadDomainDoesNotBlockTheOthers(t *testing.T) {
	grid1 := xmlrpcServer(func(string) string {
		return xmlStructResponse(
			xmlMember("friends", xmlValueArray(xmlValueString(friendA), xmlValueString(friendB))),
		)
	})
	defer grid1.Close()

	dead := xmlrpcServer(func(string) string { return "" })
	deadURL := dead.URL
	dead.Close()

	session := &fakeSession{}
	directory := &fakeDirectory{session: session, known: userA}
	fed := newTestFederation(t, WithSessionDirectory(directory))

	confirmed, err := fed.Presence().Notify(userA, map[string][]string{
		grid1.URL: {friendA, friendB},
		deadURL:   {friendC},
	}, false)

	require.Error(t, err, "the aggregated error names the failed domain")
	require.ErrorIs(t, err, ErrUnreachable)
	require.ElementsMatch(t, []string{friendA, friendB}, confirmed,
		"the healthy domain's confirmations still come through")
	require.Len(t, session.offline, 1)
	require.Empty(t, session.online)
}

func TestPresence_EmptyGroupsCostNothing(t *testing.T) {
	var calls atomic.Int32
	grid := xmlrpcServer(func(string) string {
		calls.Add(1)
		return xmlStructResponse(xmlMember("friends", xmlValueArray()))
	})
	defer grid.Close()

	fed := newTestFederation(t)
	confirmed, err := fed.Presence().Notify(userA, map[string][]string{
		grid.URL: {},
	}, true)

	require.NoError(t, err)
	require.Empty(t, confirmed)
	require.Zero(t, calls.Load())
}

func TestPresence_NotifyFriendsGroupsBeforeCalling(t *testing.T) {
	var calls atomic.Int32
	grid := xmlrpcServer(func(body string) string {
		calls.Add(1)
		require.Contains(t, body, friendA)
		require.Contains(t, body, friendB)
		return xmlStructResponse(
			xmlMember("friends", xmlValueArray(xmlValueString(friendA), xmlValueString(friendB))),
		)
	})
	defer grid.Close()

	fed := newTestFederation(t)
	confirmed, err := fed.Presence().NotifyFriends(userA, []string{
		friendA + ";" + grid.URL + ";Alice Aster",
		friendB + ";" + grid.URL,
		"5b1287c3-99aa-4cce-b5ed-42639ce1aa25", // local friend, not ours to notify
	}, true)

	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load(), "both foreign friends share one call")
	require.ElementsMatch(t, []string{friendA, friendB}, confirmed)
}

func TestPresence_NoSessionDirectoryStillConfirms(t *testing.T) {
	grid := xmlrpcServer(func(string) string {
		return xmlStructResponse(xmlMember("friends", xmlValueArray(xmlValueString(friendA))))
	})
	defer grid.Close()

	fed := newTestFederation(t)
	confirmed, err := fed.Presence().Notify(userA, map[string][]string{grid.URL: {friendA}}, true)

	require.NoError(t, err)
	require.Equal(t, []string{friendA}, confirmed)
}
