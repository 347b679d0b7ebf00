package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Sequencer
		"Creating %s from %d images at %s, %d/%d s per image":         "%[2]d 枚の画像から %[1]s を作成中 (%[3]s, 1枚あたり %[4]d/%[5]d 秒)",
		"%.1f seconds per image is below tick precision, using 1/%d s": "1枚あたり %.1f 秒はティック精度を下回るため 1/%d 秒を使用します",
		"Frame %d/%d appended at %s":                                   "フレーム %d/%d を %s に追加しました",
		"Writing %s with %s":                                           "%s を %s で書き込み中",
		"Movie written to %s":                                          "動画を %s に書き込みました",
		"Movie creation failed: %v":                                    "動画の作成に失敗しました: %v",
		"No previous movie removed at %s: %v":                          "%s に既存の動画はありません: %v",

		// Movie writer
		"Session started: %s %s via %s, %s":                      "セッション開始: %s %s (%s, %s)",
		"Session completed: %d frames written to %s":             "セッション完了: %d フレームを %s に書き込みました",
		"Session failed: %v":                                     "セッションが失敗しました: %v",
		"Session cancelled: %s removed":                          "セッションを中止しました: %s を削除しました",
		"H.264 encoder not available, falling back to JPEG":      "H.264 エンコーダーが利用できないため JPEG にフォールバックします",
		"H.264 needs even dimensions (%s), falling back to JPEG": "H.264 には偶数の寸法が必要です (%s)。JPEG にフォールバックします",

		// Image loader
		"Loaded %s (%s, %dx%d)": "%s を読み込みました (%s, %dx%d)",

		// Album
		"Creating album %q":                "アルバム %q を作成中",
		"Saved %s to album %q as %s":       "%s をアルバム %q に %s として保存しました",
		"Saving %s to album %q failed: %v": "%s のアルバム %q への保存に失敗しました: %v",

		// CLI
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
		"Summary saved to %s":           "サマリーを %s に保存しました",
		"Failed to write summary: %s":   "サマリーの書き込みに失敗しました: %s",
		"Failed to write metrics: %s":   "メトリクスの書き込みに失敗しました: %s",
	})
}
