package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"payroll/internal/core"
	"payroll/internal/i18n"
)

// SystemInstruction is sent alongside every prompt.
const SystemInstruction = "أنت مساعد محاسبة ذكي تتحدث باللغة العربية. حلل البيانات المقدمة للإجابة على أسئلة المستخدم."

const promptTemplate = `
أنت مساعد محاسبة ذكي في تطبيق لإدارة رواتب الموظفين. مهمتك هي الإجابة على أسئلة المستخدم بناءً على البيانات المقدمة بصيغة JSON.
يجب أن تكون إجاباتك باللغة العربية، واضحة، وموجزة.
تاريخ اليوم هو: %s.

بيانات الموظفين:
%s

بيانات السحوبات:
%s

سؤال المستخدم: "%s"

قم بتحليل البيانات وأجب على السؤال.
`

// BuildPrompt embeds today's date, both collections as indented JSON and the
// question into a single prompt.
func BuildPrompt(question string, employees []core.Employee, withdrawals []core.Withdrawal, now time.Time) (string, error) {
	if employees == nil {
		employees = []core.Employee{}
	}
	if withdrawals == nil {
		withdrawals = []core.Withdrawal{}
	}
	emp, err := json.MarshalIndent(employees, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode employees: %w", err)
	}
	wd, err := json.MarshalIndent(withdrawals, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode withdrawals: %w", err)
	}
	return fmt.Sprintf(promptTemplate, i18n.LongDate(now), emp, wd, strings.TrimSpace(question)), nil
}
