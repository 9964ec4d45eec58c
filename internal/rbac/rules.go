package rbac

// Default policy. Learners may read exercises and run their own attempts;
// authors additionally edit answers and read the event log.
var RolePermissions = map[string][]string{
	"learner": {
		"exercise:view",
		"exercise:check",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
	},
	"author": {
		"exercise:*",
		"attempt:*",
		"events:view",
	},
	"admin": {
		"*", // everything
	},
}
