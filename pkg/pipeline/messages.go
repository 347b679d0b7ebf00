package pipeline

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"An unknown error occurred":     "不明なエラーが発生しました",
		"Reason for failure is unknown": "失敗の原因は不明です",
		"Try the operation again":       "もう一度操作してください",

		"Unable to save video to photo album":                  "動画をフォトアルバムに保存できません",
		"Video file format is not compatible with photo album": "動画ファイル形式がフォトアルバムに対応していません",
		"Create the video as mov or mp4":                       "mov または mp4 で動画を作成してください",

		"A null buffer error was encountered":          "バッファを確保できませんでした",
		"The buffer was null or could not be created":  "バッファが null か作成できませんでした",
		"Use a smaller output size":                    "出力サイズを小さくしてください",
		"Missing context encountered when drawing frame": "フレーム描画時に描画コンテキストがありません",
		"The drawing context could not be bound to the frame": "描画コンテキストをフレームに割り当てられませんでした",
		"Check that every source image has pixels":            "すべての画像にピクセルがあることを確認してください",
		"Missing color space encountered":                     "色空間がありません",
		"Color space could not be created for device RGB":     "デバイスRGBの色空間を作成できませんでした",
		"Convert the source image to RGB":                     "画像をRGBに変換してください",

		"Unable to write temporary video to local path": "ローカルパスに動画を書き込めません",
		"Local path could not be opened":                "ローカルパスを開けませんでした",
		"Choose a writable file path":                   "書き込み可能なファイルパスを指定してください",

		"Unable to start the video writer":               "動画ライターを開始できません",
		"The encoding session could not be created":      "エンコードセッションを作成できませんでした",
		"Check the output path and codec availability":   "出力パスとコーデックの利用可否を確認してください",
		"Unable to finish writing the video":             "動画の書き込みを完了できません",
		"The encoder ended in a failed state":            "エンコーダーが失敗状態で終了しました",
		"Check free disk space and try again":            "ディスクの空き容量を確認して再試行してください",
		"No images were provided":                        "画像が指定されていません",
		"A video needs at least one image":               "動画には少なくとも1枚の画像が必要です",
		"Provide one or more images":                     "1枚以上の画像を指定してください",
		"Invalid sequencer options":                      "シーケンサーのオプションが不正です",
		"Output size and seconds per image must be positive": "出力サイズと1枚あたりの秒数は正の値である必要があります",
		"Correct the options and try again":              "オプションを修正して再試行してください",
		"Unable to append frame to video":                "動画にフレームを追加できません",
		"The encoder rejected the frame":                 "エンコーダーがフレームを拒否しました",
		"Video creation was cancelled":                   "動画の作成がキャンセルされました",
		"The operation was cancelled before completion":  "操作は完了前にキャンセルされました",
		"Start the operation again":                      "操作をやり直してください",
	})
}
