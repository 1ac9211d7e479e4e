package lf

import "go.uber.org/zap"

const (
	FieldModule       = "module"
	FieldManifestFile = "manifest_file"
	FieldPipelineID   = "pipeline_id"
	FieldStepName     = "step_name"
	FieldExitCode     = "exit_code"
	FieldArtifactType = "artifact_type"
	FieldCommand      = "command"
	FieldError        = "error"
)

func Module(module string) zap.Field {
	return zap.String(FieldModule, module)
}

func ManifestFile(path string) zap.Field {
	return zap.String(FieldManifestFile, path)
}

func PipelineID(ID string) zap.Field {
	return zap.String(FieldPipelineID, ID)
}

func StepName(name string) zap.Field {
	return zap.String(FieldStepName, name)
}

func ExitCode(code int) zap.Field {
	return zap.Int(FieldExitCode, code)
}

func ArtifactType(typ string) zap.Field {
	return zap.String(FieldArtifactType, typ)
}

func Command(path string) zap.Field {
	return zap.String(FieldCommand, path)
}

// Error keeps only the message; zap.Error would also dump the pkg/errors stack.
func Error(err error) zap.Field {
	return zap.String(FieldError, err.Error())
}
