// Package main provides localization for the imageseq CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":            "出力先",
		"Video and Quality": "動画と品質",
		"Layout and Style":  "レイアウトとスタイル",
		"Encoder":           "エンコーダー",
		"Album":             "アルバム",
		"Reporting":         "レポート",
		"Logging":           "ログ",

		// Commands
		"Turn still images into a movie":       "静止画から動画を作成",
		"Create a movie from images":           "画像から動画を作成",
		"Save an existing movie into an album": "既存の動画をアルバムに保存",
		"Show the video track of a movie":      "動画のビデオトラックを表示",

		// Flags
		"YAML configuration file":                          "YAML設定ファイル",
		"Output movie path (default: temporary directory)": "出力動画のパス（デフォルト: 一時ディレクトリ）",
		"Container format (mov, mp4, avi; avi repeats frames to hold each image)": "コンテナ形式（mov, mp4, avi。aviは画像ごとにフレームを繰り返します）",
		"Output video width (default: 720)":                "出力動画の幅（デフォルト: 720）",
		"Output video height (default: 720)":               "出力動画の高さ（デフォルト: 720）",
		"Seconds each image is shown (default: 1)":         "各画像の表示秒数（デフォルト: 1）",
		"Video codec (auto, h264, jpeg)":                   "動画コーデック（auto, h264, jpeg）",
		"Encoder quality (1-100, higher is better)":        "エンコード品質（1-100、高いほど高品質）",
		"Scale mode (fit, fill, stretch, canvas)":          "拡大縮小モード（fit, fill, stretch, canvas）",
		"Background color (hex, e.g., #000000)":            "背景色（16進数、例: #000000）",
		"Path to ffmpeg executable":                        "ffmpeg実行ファイルのパス",
		"Fail instead of falling back to JPEG when H.264 is unavailable": "H.264が使えない場合にJPEGへフォールバックせず失敗する",
		"Output execution summary to file (Markdown format)":             "実行サマリーをファイルに出力（Markdown形式）",
		"Write Prometheus metrics to a textfile":                         "Prometheusメトリクスをテキストファイルに出力",
		"Save the movie into this album":                                 "動画をこのアルバムに保存",
		"Photo library directory (default: ./library)":                   "フォトライブラリのディレクトリ（デフォルト: ./library）",
		"Log level (debug, info, warn, error)":                           "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                        "全てのログ出力を抑制",

		// Argument errors
		"At least one image argument is required": "画像引数が少なくとも1つ必要です",
		"Exactly one movie argument is required":  "動画引数を1つだけ指定してください",
		"--album is required":                     "--album が必要です",

		// Probe output
		"Container": "コンテナ",
		"Codec":     "コーデック",
		"Size":      "サイズ",
		"Timescale": "タイムスケール",
		"Frames":    "フレーム数",
		"Duration":  "再生時間",

		// Summary content
		"Movie Summary":     "動画サマリー",
		"Item":              "項目",
		"Value":             "値",
		"Result":            "結果",
		"Success":           "成功",
		"Failed":            "失敗",
		"Error":             "エラー",
		"Suggestion":        "対処方法",
		"Elapsed":           "所要時間",
		"Input":             "入力",
		"Images":            "画像数",
		"Canvas":            "キャンバス",
		"Settings":          "設定",
		"Output Size":       "出力サイズ",
		"Seconds per Image": "1枚あたりの秒数",
		"Format":            "形式",
		"fallback from":     "フォールバック元",
		"Backend":           "バックエンド",
		"Scale Mode":        "拡大縮小モード",
		"Quality":           "品質",
		"Video":             "動画",
		"Frame Duration":    "フレーム時間",
		"File Size":         "ファイルサイズ",
		"Asset":             "アセット",
		"Album Created":     "アルバム作成",
		"Yes":               "はい",
		"Generated at":      "生成日時",
	})
}
