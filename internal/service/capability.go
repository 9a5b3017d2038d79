package service

// Capabilities gating engine operations. Checked explicitly at service
// entry points (and by the route middleware), independent of any HTTP
// framework.
const (
	CapAllocationWrite = "allocation:write"
	CapAllocationView  = "allocation:view"
	CapCourseMark      = "course:mark"
	CapSemesterManage  = "semester:manage"
	CapFormRespond     = "form:respond"
)

// roleCapabilities maps a role name to the capabilities it grants.
var roleCapabilities = map[string][]string{
	"admin": {
		CapAllocationWrite, CapAllocationView, CapCourseMark,
		CapSemesterManage, CapFormRespond,
	},
	"dca-convener": {
		CapAllocationWrite, CapAllocationView, CapCourseMark, CapFormRespond,
	},
	"dca-member": {CapAllocationView, CapFormRespond},
	"faculty":    {CapFormRespond},
	"phd":        {CapFormRespond},
}

// HasCapability reports whether any of the roles grants the capability.
func HasCapability(roles []string, capability string) bool {
	for _, role := range roles {
		for _, c := range roleCapabilities[role] {
			if c == capability {
				return true
			}
		}
	}
	return false
}
