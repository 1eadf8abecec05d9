package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetProjectID(ctx *gin.Context) (uint, error) {
	return getUintParam(ctx, "project_id", "Project ID")
}

func GetUserIDParam(ctx *gin.Context) (uint, error) {
	return getUintParam(ctx, "user_id", "User ID")
}

func GetTestCaseID(ctx *gin.Context) (uint, error) {
	return getUintParam(ctx, "testcase_id", "Test Case ID")
}

func getUintParam(ctx *gin.Context, name string, label string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(label + " not found")
	}

	value, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + label)
	}

	return uint(value), nil
}
