package instructions

import (
	"os/user"
	"strconv"
)

// lookupOwner resolves a chown instruction's user/group names (or numeric
// IDs) to uid/gid. Either may be empty, meaning "leave unchanged" (-1).
func lookupOwner(userName, groupName string) (uid, gid int, err error) {
	uid, err = resolveID(userName, lookupUID)
	if err != nil {
		return 0, 0, err
	}
	gid, err = resolveID(groupName, lookupGID)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}

func resolveID(name string, lookup func(string) (int, error)) (int, error) {
	if name == "" {
		return -1, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		return n, nil
	}
	return lookup(name)
}

func lookupUID(name string) (int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Uid)
}

func lookupGID(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(g.Gid)
}
