// Command blogapi はブログ投稿のWeb APIサーバー、トークンクリーンアップワーカー、
// マイグレーション、デモデータ投入を1つのバイナリで提供する。
//
//	blogapi [serve|worker|migrate|seed|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/carlosnatalino/simple-flask-blog/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "blogapi: %v\n", err)
		os.Exit(1)
	}
}
