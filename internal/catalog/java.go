package catalog

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/astrokit/internal/component"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/launch"
)

// javaExecutable finds java through JAVA_HOME first, then PATH.
func javaExecutable(env *component.Env) (string, bool) {
	if home := getenv("JAVA_HOME"); home != "" {
		p := filepath.Join(home, "bin", "java")
		if fileExists(p) {
			return p, true
		}
	}
	p, err := env.Runner.LookPath("java")
	if err != nil {
		return "", false
	}
	return p, true
}

func javaComponent() component.Component {
	return component.Component{
		Name:        Java,
		Description: "Java runtime (system prerequisite)",
		IsInstalled: func(_ context.Context, env *component.Env) bool {
			_, ok := javaExecutable(env)
			return ok
		},
		Install: func(_ context.Context, env *component.Env) error {
			if _, ok := javaExecutable(env); ok {
				return nil
			}
			return ferrors.InstallError(Java, "no Java runtime found on PATH or in JAVA_HOME").
				Check("java-runtime").
				UserAction().
				Hint("install a Java 8+ runtime (e.g. apt install default-jre) or set JAVA_HOME").
				Build()
		},
		Verify: func(ctx context.Context, env *component.Env) component.Health {
			java, ok := javaExecutable(env)
			if !ok {
				return component.Broken("java-runtime", "no Java runtime found on PATH or in JAVA_HOME").
					WithHint("install a Java 8+ runtime or set JAVA_HOME")
			}
			if _, err := env.Runner.Output(ctx, launch.Cmd{Path: java, Args: []string{"-version"}}); err != nil {
				return component.Broken("java-runtime", "java -version failed: "+err.Error())
			}
			return component.OK(java)
		},
	}
}
