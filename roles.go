package zeen

const (
	RoleUser          = "User"
	RoleModerator     = "Moderator"
	RoleAdministrator = "Administrator"
)

// RoleDefinition describes a role InsertRoles keeps in sync
type RoleDefinition struct {
	Name        string
	Permissions Permission
	Default     bool
}

// DefaultRoles is the canonical role table. Exactly one entry is the
// default role assigned at registration.
var DefaultRoles = []RoleDefinition{
	{
		Name:        RoleUser,
		Permissions: PermissionFollow | PermissionComment | PermissionWriteContent,
		Default:     true,
	},
	{
		Name:        RoleModerator,
		Permissions: PermissionFollow | PermissionComment | PermissionWriteContent | PermissionModerateComments,
	},
	{
		Name:        RoleAdministrator,
		Permissions: 0xff,
	},
}

// String returns the names of the granted permissions
func (p Permission) String() string {
	names := p.Names()
	if len(names) == 0 {
		return "NONE"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += "|" + n
	}
	return out
}

// Names lists the known permission bits that are set
func (p Permission) Names() []string {
	known := []struct {
		perm Permission
		name string
	}{
		{PermissionFollow, "FOLLOW"},
		{PermissionComment, "COMMENT"},
		{PermissionWriteContent, "WRITE_CONTENT"},
		{PermissionModerateComments, "MODERATE_COMMENTS"},
		{PermissionAdminister, "ADMINISTER"},
	}
	var names []string
	for _, k := range known {
		if p&k.perm == k.perm {
			names = append(names, k.name)
		}
	}
	return names
}
