package banner

import (
	"fmt"

	"ledgerdesk/pkg/config"
)

const banner = `
██╗     ███████╗██████╗  ██████╗ ███████╗██████╗ ██████╗ ███████╗███████╗██╗  ██╗
██║     ██╔════╝██╔══██╗██╔════╝ ██╔════╝██╔══██╗██╔══██╗██╔════╝██╔════╝██║ ██╔╝
██║     █████╗  ██║  ██║██║  ███╗█████╗  ██████╔╝██║  ██║█████╗  ███████╗█████╔╝
██║     ██╔══╝  ██║  ██║██║   ██║██╔══╝  ██╔══██╗██║  ██║██╔══╝  ╚════██║██╔═██╗
███████╗███████╗██████╔╝╚██████╔╝███████╗██║  ██║██████╔╝███████╗███████║██║  ██╗
╚══════╝╚══════╝╚═════╝  ╚═════╝ ╚══════╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝
`

// Print prints the startup banner with the effective configuration.
func Print(eff config.EffectiveConfigResult, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", eff.Addr)
	fmt.Printf("DB Path:  %s\n", eff.DBPath)
	if engine := eff.Config.Server.Engine; engine != "" {
		fmt.Printf("Engine:   %s\n", engine)
	}
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if eff.Source != "" {
		fmt.Printf("Config sources: %s\n", eff.Source)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/auth/signin - Sign in (JSON: email, password)")
	fmt.Println("GET  /v1/conversations/unassigned - Shared staff inbox")
	fmt.Println("GET  /v1/records/{collection} - Console records (clients, tasks, ...)")
	fmt.Println("GET  /docs/ - API documentation")
}
