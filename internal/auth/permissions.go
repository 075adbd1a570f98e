package auth

// Builtin role names. These are policy literals referenced by route
// policies and seed data; renaming one is a breaking change.
const (
	RoleUser     = "user"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// Canonical permission keys (resource.action).
const (
	PermMaterialsUpload = "materials.upload"
	PermMaterialsRead   = "materials.read"
	PermQuestionsCreate = "questions.create"
	PermQuestionsRead   = "questions.read"
	PermQuestionsReview = "questions.review"
	PermUsersManage     = "users.manage"
	PermRolesManage     = "roles.manage"
)

// BuiltinPermissions is the immutable catalog ensured at startup.
var BuiltinPermissions = []Permission{
	{Resource: "materials", Action: "upload", Description: "Upload teaching materials"},
	{Resource: "materials", Action: "read", Description: "Read teaching materials"},
	{Resource: "questions", Action: "create", Description: "Generate and save questions"},
	{Resource: "questions", Action: "read", Description: "Read questions"},
	{Resource: "questions", Action: "review", Description: "Review generated questions"},
	{Resource: "users", Action: "manage", Description: "Manage user accounts and role assignments"},
	{Resource: "roles", Action: "manage", Description: "Manage roles and their permissions"},
}

// BuiltinRoleGrants maps builtin roles to the permission keys they carry.
// Seeded at startup alongside the permission catalog.
var BuiltinRoleGrants = map[string][]string{
	RoleUser: {
		PermMaterialsUpload,
		PermMaterialsRead,
		PermQuestionsCreate,
		PermQuestionsRead,
	},
	RoleReviewer: {
		PermMaterialsRead,
		PermQuestionsRead,
		PermQuestionsReview,
	},
	RoleAdmin: {
		PermMaterialsUpload,
		PermMaterialsRead,
		PermQuestionsCreate,
		PermQuestionsRead,
		PermQuestionsReview,
		PermUsersManage,
		PermRolesManage,
	},
}
