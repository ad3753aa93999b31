package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/models"
)

func escape(s string) string {
	return html.EscapeString(s)
}

var roleLabels = map[models.RoleName]string{
	models.RoleOwner: "拥有者",
	models.RoleAdmin: "管理员",
	models.RoleUser:  "用户",
}

func yesNo(configured bool) string {
	if configured {
		return "已配置"
	}
	return "未配置"
}

// formatAccountInfo renders the my_info card.
func formatAccountInfo(info service.AccountInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "👤 <b>%s</b>\n", escape(info.User.Username))
	fmt.Fprintf(&b, "ID: <code>%d</code>\n", info.User.TgID)
	fmt.Fprintf(&b, "角色: %s\n", roleLabels[info.User.Role])
	fmt.Fprintf(&b, "Emby: %s\n", yesNo(info.HasEmby))
	fmt.Fprintf(&b, "quark-auto-save: %s\n", yesNo(info.HasQAS))

	if len(info.AIProviders) == 0 {
		b.WriteString("AI: 未配置\n")
	} else {
		fmt.Fprintf(&b, "AI: %s", strings.Join(info.AIProviders, ", "))
		if info.DefaultAIProvider != "" {
			fmt.Fprintf(&b, "（默认 %s）", info.DefaultAIProvider)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatReminderReceipt renders the reply to a freshly scheduled reminder.
func formatReminderReceipt(receipt service.ReminderReceipt) string {
	if receipt.Trigger == models.TriggerDate {
		return fmt.Sprintf("我将会在 %s 提醒你 %s",
			receipt.RunAt.Format("2006-01-02 15:04:05"), escape(receipt.Content))
	}
	return fmt.Sprintf("我将会按计划（%s）提醒你 %s", receipt.CronSpec, escape(receipt.Content))
}

// formatReminderPage renders one page of the reminder list.
func formatReminderPage(page service.ReminderPage) string {
	if page.Total == 0 {
		return "你还没有创建任何提醒。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>我的提醒</b>（第 %d/%d 页，共 %d 条）\n", page.Page, page.TotalPages, page.Total)
	for _, link := range page.Links {
		fmt.Fprintf(&b, "• <code>%s</code> %s\n", link.JobID, escape(link.Description))
	}

	return b.String()
}

// formatSeries renders an Emby series hit.
func formatSeries(info service.SeriesInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎬 <b>%s</b>", escape(info.Item.Name))
	if info.Item.ProductionYear > 0 {
		fmt.Fprintf(&b, "（%d）", info.Item.ProductionYear)
	}
	b.WriteString("\n")
	if info.PosterURL != "" {
		fmt.Fprintf(&b, "<a href=\"%s\">海报</a>\n", info.PosterURL)
	}

	return b.String()
}

// formatTMDBResults renders TMDB lookups.
func formatTMDBResults(results []adapter.TMDBResult) string {
	if len(results) == 0 {
		return "没有找到匹配的条目。"
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "🎬 <b>%s</b>", escape(r.Name))
		if r.FirstAirDate != "" {
			fmt.Fprintf(&b, "（%s）", r.FirstAirDate)
		}
		b.WriteString("\n")
		if r.PosterURL != "" {
			fmt.Fprintf(&b, "<a href=\"%s\">海报</a>\n", r.PosterURL)
		}
	}

	return b.String()
}

// formatQASTasks renders the auto-save task list with 1-based indexes to
// match the update and delete commands.
func formatQASTasks(tasks []adapter.QASTask) string {
	if len(tasks) == 0 {
		return "当前没有转存任务。"
	}

	var b strings.Builder
	b.WriteString("📦 <b>转存任务</b>\n")
	for i, task := range tasks {
		fmt.Fprintf(&b, "%d. %s\n    %s\n", i+1, escape(task.TaskName), escape(task.SavePath))
	}

	return b.String()
}

// formatSharePreview renders a pattern preview.
func formatSharePreview(entries []service.SharePreviewEntry) string {
	if len(entries) == 0 {
		return "分享中没有文件。"
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s\n", e.Verdict, escape(e.FileName))
	}

	return b.String()
}
