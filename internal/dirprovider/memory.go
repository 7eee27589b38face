package dirprovider

import "sync"

// MemProvider is a reference Provider implementation backed by in-memory
// maps, used by AB tree/store tests in lieu of the excluded SQL driver.
type MemProvider struct {
	mu sync.RWMutex

	orgDomains   map[int][]int
	domains      map[int]DomainInfo
	domainGroups map[int][]GroupInfo
	groupClasses map[int][]ClassInfo
	subClasses   map[int][]ClassInfo
	classUsers   map[int][]User
	groupUsers   map[int][]User
	domainUsers  map[int][]User
	usersByName  map[string]User
	usersByID    map[int]User
	domainIDByName map[string]int
	orgByDomain    map[int]int
	maildirs       map[string]string
	timezones      map[string]string
	langs          map[string]string
	privBits       map[string]uint32
	mlistMembers   map[string]map[string]bool
}

// NewMemProvider returns an empty in-memory provider ready for tests to
// populate via the Add* helpers.
func NewMemProvider() *MemProvider {
	return &MemProvider{
		orgDomains:     make(map[int][]int),
		domains:        make(map[int]DomainInfo),
		domainGroups:   make(map[int][]GroupInfo),
		groupClasses:   make(map[int][]ClassInfo),
		subClasses:     make(map[int][]ClassInfo),
		classUsers:     make(map[int][]User),
		groupUsers:     make(map[int][]User),
		domainUsers:    make(map[int][]User),
		usersByName:    make(map[string]User),
		usersByID:      make(map[int]User),
		domainIDByName: make(map[string]int),
		orgByDomain:    make(map[int]int),
		maildirs:       make(map[string]string),
		timezones:      make(map[string]string),
		langs:          make(map[string]string),
		privBits:       make(map[string]uint32),
		mlistMembers:   make(map[string]map[string]bool),
	}
}

func (m *MemProvider) AddDomain(orgID int, d DomainInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgDomains[orgID] = append(m.orgDomains[orgID], d.ID)
	m.domains[d.ID] = d
	m.domainIDByName[d.Name] = d.ID
	m.orgByDomain[d.ID] = orgID
}

func (m *MemProvider) AddDomainUser(domainID int, u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domainUsers[domainID] = append(m.domainUsers[domainID], u)
	m.usersByName[u.Username] = u
	m.usersByID[u.ID] = u
	if u.Maildir != "" {
		m.maildirs[u.Username] = u.Maildir
	}
}

func (m *MemProvider) GetOrgDomains(orgID int) ([]int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.orgDomains[orgID]
	return v, ok
}

func (m *MemProvider) GetDomainInfo(domainID int) (DomainInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.domains[domainID]
	return v, ok
}

func (m *MemProvider) GetDomainGroups(domainID int) ([]GroupInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.domainGroups[domainID]
	return v, ok
}

func (m *MemProvider) GetGroupClasses(groupID int) ([]ClassInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.groupClasses[groupID]
	return v, ok
}

func (m *MemProvider) GetSubClasses(classID int) ([]ClassInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.subClasses[classID]
	return v, ok
}

func (m *MemProvider) GetClassUsers(classID int) ([]User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.classUsers[classID]
	return v, ok
}

func (m *MemProvider) GetGroupUsers(groupID int) ([]User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.groupUsers[groupID]
	return v, ok
}

func (m *MemProvider) GetDomainUsers(domainID int) ([]User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.domainUsers[domainID]
	return v, ok
}

func (m *MemProvider) GetUser(username string) (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByName[username]
	return u, ok
}

func (m *MemProvider) GetMlistIDs(userID int) (int, int, bool) {
	return 0, 0, false
}

func (m *MemProvider) GetUserIDs(username string) (int, int, DTypX, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByName[username]
	if !ok {
		return 0, 0, 0, false
	}
	for domainID, users := range m.domainUsers {
		for _, cu := range users {
			if cu.ID == u.ID {
				return u.ID, domainID, u.DTypX, true
			}
		}
	}
	return u.ID, 0, u.DTypX, true
}

func (m *MemProvider) GetDomainIDs(name string) (int, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.domainIDByName[name]
	if !ok {
		return 0, 0, false
	}
	return id, m.orgByDomain[id], true
}

func (m *MemProvider) GetUsernameFromID(id int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByID[id]
	return u.Username, ok
}

func (m *MemProvider) GetMaildir(username string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.maildirs[username]
	return v, ok
}

func (m *MemProvider) GetTimezone(username string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.timezones[username]
	return v, ok
}

func (m *MemProvider) SetTimezone(username, tz string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timezones[username] = tz
	return true
}

func (m *MemProvider) GetUserLang(username string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.langs[username]
	return v, ok
}

func (m *MemProvider) SetUserLang(username, lang string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.langs[username] = lang
	return true
}

func (m *MemProvider) GetUserPrivilegeBits(username string) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.privBits[username]
	return v, ok
}

func (m *MemProvider) CheckMlistInclude(listUsername, account string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.mlistMembers[listUsername]
	return ok && members[account]
}

func (m *MemProvider) CheckSameOrg2(domainID1, domainID2 int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o1, ok1 := m.orgByDomain[domainID1]
	o2, ok2 := m.orgByDomain[domainID2]
	return ok1 && ok2 && o1 == o2
}

var _ Provider = (*MemProvider)(nil)
