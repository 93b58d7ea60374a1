package catalog

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/launch"
	"git.home.luguber.info/inful/astrokit/internal/overlay"
)

var zipMagic = []byte("PK\x03\x04")

func topcatJar(env *component.Env) string {
	return filepath.Join(env.Layout.AppDir(Topcat), "topcat-full.jar")
}

func topcatComponent() component.Component {
	return component.Component{
		Name:        Topcat,
		Description: "TOPCAT table viewer",
		DependsOn:   []string{Java, Home},
		IsInstalled: func(_ context.Context, env *component.Env) bool {
			return fileExists(topcatJar(env))
		},
		Install: func(ctx context.Context, env *component.Env) error {
			if fileExists(topcatJar(env)) && !env.Reinstall {
				return nil
			}
			if err := env.Fetcher.Fetch(ctx, env.Config.Topcat.Source, topcatJar(env)); err != nil {
				return ferrors.InstallError(Topcat, "download failed").
					Check("fetch-jar").
					WithCause(err).
					WithContext(ferrors.KeyURL, env.Config.Topcat.Source.URL).
					Hint("check network access and re-run astro install topcat").
					Build()
			}
			return nil
		},
		Verify: func(_ context.Context, env *component.Env) component.Health {
			jar := topcatJar(env)
			f, err := os.Open(jar)
			if err != nil {
				return component.Broken("jar-present", "topcat-full.jar is missing").WithHint("astro repair")
			}
			defer func() { _ = f.Close() }()
			head := make([]byte, len(zipMagic))
			if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, zipMagic) {
				return component.Broken("jar-magic", "topcat-full.jar is not a jar archive").WithHint("astro repair")
			}
			return component.OK(jar)
		},
		Artifacts: func(env *component.Env) []string { return []string{env.Layout.AppDir(Topcat)} },
		Launches: []component.LaunchSpec{{
			Command: LaunchTopcat,
			Resolve: func(_ context.Context, env *component.Env) (launch.Cmd, error) {
				java, ok := javaExecutable(env)
				if !ok {
					return launch.Cmd{}, ferrors.LaunchError(Topcat, "no Java runtime found").
						Check("java-runtime").
						Hint("install a Java 8+ runtime or set JAVA_HOME").
						Build()
				}
				args := append([]string{}, env.Config.Topcat.JavaOptions...)
				args = append(args, "-jar", topcatJar(env))
				return launch.Cmd{Path: java, Args: args, Dir: env.Layout.Work}, nil
			},
			Overlay: func(env *component.Env) *overlay.Spec {
				return &overlay.Spec{Vars: append(overlay.DisplayVars(), rootVar(env))}
			},
		}},
	}
}
