package alert

import (
	"fmt"
	"strings"

	"tracker_worker/core/domain"
)

// Template variable names shared with the gateway's content templates.
const (
	VarProject         = "project"
	VarKPI             = "kpi"
	VarStatus          = "status"
	VarReceived        = "received"
	VarCreated         = "created"
	VarDue             = "due"
	VarOwnerLabel      = "owner_label"
	VarOwner           = "owner"
	VarOwnerSupervisor = "owner_supervisor"
)

const supervisorPrefix = "Đầu mối phụ trách: "

// Compose builds the base body and template variables for a fired rule.
// It is pure: the same alert always yields the same output.
func Compose(a domain.Alert) (string, map[string]string) {
	rec := a.Record

	switch a.Rule {
	case domain.RuleKPIApproaching, domain.RuleKPIOverdue:
		project := rec.Get(domain.FieldSizingProject)
		kpi := rec.Get(domain.FieldSizingKPI)
		closing := "Vui lòng kiểm tra và xử lý."
		if a.Rule == domain.RuleKPIOverdue {
			closing = "Vui lòng xử lý gấp để không ảnh hưởng tiến độ."
		}
		body := lines(
			"CẢNH BÁO TIẾN ĐỘ: "+a.Label,
			"Dự án: "+project,
			"KPI: "+kpi,
			closing,
		)
		return body, map[string]string{VarProject: project, VarKPI: kpi, VarStatus: a.Label}

	case domain.RuleSRCreateToday, domain.RuleSRCreateDue, domain.RuleSRCreateLate:
		project := rec.Get(domain.FieldCapPhatProject)
		received := rec.Get(domain.FieldCapPhatReceived)
		vars := map[string]string{VarProject: project, VarReceived: received}

		var title, closing string
		switch a.Rule {
		case domain.RuleSRCreateToday:
			title = "NHẮC TẠO MÃ SR"
			closing = "Yêu cầu: Vui lòng tạo mã SR trong ngày hoặc muộn nhất ngày hôm sau."
		case domain.RuleSRCreateDue:
			title = "ĐÃ ĐẾN HẠN TẠO MÃ SR"
			closing = "Vui lòng tạo mã SR ngay để đảm bảo tiến độ."
		default:
			title = fmt.Sprintf("NHẮC TẠO MÃ SR (%s)", a.Label)
			closing = "Vui lòng tạo mã SR ngay để đảm bảo tiến độ."
			vars[VarStatus] = a.Label
		}
		return lines(title, "Dự án: "+project, "Tiếp nhận: "+received, closing), vars

	case domain.RuleSRDeadlineToday, domain.RuleSRDeadlineIn1Day:
		project := rec.Get(domain.FieldCapPhatProject)
		body := lines(
			fmt.Sprintf("NHẮC TIẾN ĐỘ MÃ SR (%s)", a.Label),
			"Dự án: "+project,
			"Ngày tạo mã SR: "+a.Reference,
			"YÊU CẦU: THEO DÕI TIẾN ĐỘ DỰ ÁN.",
		)
		return body, map[string]string{VarProject: project, VarCreated: a.Reference, VarDue: a.Label}
	}

	return "", map[string]string{}
}

// PrepareForRecipient adapts the base message for one recipient. Privileged
// recipients are told who owns the record; everyone else gets the base
// message unchanged. The inputs are not modified.
func PrepareForRecipient(a domain.Alert, privileged bool, body string, vars map[string]string) (string, map[string]string) {
	out := make(map[string]string, len(vars)+3)
	for k, v := range vars {
		out[k] = v
	}
	if !privileged {
		return body, out
	}

	owner := ""
	if f := a.Sheet.OwnerField(); f != "" {
		owner = a.Record.Get(f)
	}

	out[VarOwnerLabel] = a.Sheet.OwnerLabel()
	out[VarOwner] = owner
	out[VarOwnerSupervisor] = ""
	if owner != "" {
		out[VarOwnerSupervisor] = supervisorPrefix + owner
		body = body + "\n" + supervisorPrefix + owner
	}
	return body, out
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}
