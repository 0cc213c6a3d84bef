package rbac

// Default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"content:view",
		"attempt:start",
		"attempt:submit",
		"attempt:view-own",
		"stats:view-own",
	},
	"teacher": {
		"content:view",
		"content:create",
		"content:transition",
		"attempt:view-all",
		"attempt:abandon",
		"stats:view-all",
	},
	"admin": {
		"*", // everything
	},
}
